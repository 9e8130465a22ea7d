package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile   string
	BatchFile string
	All       bool
	JSON      bool
	LogLevel  string
	LogFormat string

	// Dictionary flags
	Backend  string
	SQLPath  string
	JSONPath string
	Breaker  bool

	// Transcription flags
	Stress     string
	KeepPunct  bool
	CustomFile string

	// Rhyme flags
	Flat bool

	// Server flags
	Addr           string
	AllowedOrigins []string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:       "info",
		LogFormat:      "text",
		Backend:        "sql",
		Stress:         "all",
		KeepPunct:      true,
		Addr:           "localhost:8080",
		AllowedOrigins: []string{"*"},
	}
}
