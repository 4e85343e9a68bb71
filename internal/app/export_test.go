package app

// Export for testing.
var (
	Classify       = classify
	ChangedClasses = changedClasses
)
