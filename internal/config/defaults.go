package config

const (
	defaultDataDir            = "~/.local/share/oakwood/data"
	defaultLogDir             = "~/.local/share/oakwood/logs"
	defaultOpenLibraryBaseURL = "https://openlibrary.org"
	defaultOpenLibraryTimeout = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		OpenLibrary: OpenLibrary{
			BaseURL:        defaultOpenLibraryBaseURL,
			RequestTimeout: defaultOpenLibraryTimeout,
		},
		Server: Server{
			AllowWrites: false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
