package ports

// Hasher computes content hashes.
type Hasher interface {
	// HashBytes returns the hex digest of data.
	HashBytes(data []byte) string
	// HashFile returns the hex digest of the file at path.
	HashFile(path string) (string, error)
}
