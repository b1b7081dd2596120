package config

const (
	defaultHistoryFile           = "~/streamlens/data/raw/NetflixViewingHistory.csv"
	defaultProcessedDir          = "~/streamlens/data/processed"
	defaultLogDir                = "~/.local/share/streamlens/logs"
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBLanguage          = "es-ES"
	defaultRetryAttempts         = 3
	defaultRetryDelaySeconds     = 5
	defaultRequestDelayMillis    = 300
	defaultRequestTimeoutSeconds = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			HistoryFile:  defaultHistoryFile,
			ProcessedDir: defaultProcessedDir,
			LogDir:       defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Enrichment: Enrichment{
			RetryAttempts:         defaultRetryAttempts,
			RetryDelaySeconds:     defaultRetryDelaySeconds,
			RequestDelayMillis:    defaultRequestDelayMillis,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
