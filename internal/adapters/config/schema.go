package config

// File represents the structure of the press.yaml configuration file.
type File struct {
	Root      string             `yaml:"root"`
	Dist      string             `yaml:"dist"`
	Paths     map[string]PathDTO `yaml:"paths"`
	Server    *ServerDTO         `yaml:"server"`
	Critical  *CriticalDTO       `yaml:"critical"`
	CacheBust string             `yaml:"cachebust"`
	Debounce  string             `yaml:"debounce"`
	Targets   []string           `yaml:"targets"`
}

// PathDTO overrides the path mapping of one asset class.
type PathDTO struct {
	Src   string `yaml:"src"`
	Watch string `yaml:"watch"`
	Dest  string `yaml:"dest"`
}

// ServerDTO configures the development server.
type ServerDTO struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CriticalDTO configures critical CSS extraction.
type CriticalDTO struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Stylesheet string `yaml:"stylesheet"`
	Browser    *bool  `yaml:"browser"`
}
