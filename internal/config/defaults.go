package config

const (
	defaultDataDir  = "~/.local/share/etymon"
	defaultLogDir   = "~/.local/share/etymon/logs"
	defaultCacheDir = "~/.cache/etymon"

	defaultBind = "127.0.0.1:8790"

	defaultProviderBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	defaultTextModel        = "gemini-2.5-flash"
	defaultTTSModel         = "gemini-2.5-flash-preview-tts"
	defaultImageModel       = "gemini-2.0-flash-preview-image-generation"
	defaultCallTimeoutMS    = 9500
	defaultRetryAttempts    = 3
	defaultRetryBaseDelayMS = 800

	defaultCacheCapacity   = 100
	defaultSuccessTTLHours = 24
	defaultDegradedTTLMin  = 5

	defaultHistoryCap      = 60
	defaultLeaderboardSize = 50

	defaultLogFormat = ""
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Server: Server{
			Bind: defaultBind,
		},
		Provider: Provider{
			BaseURL:          defaultProviderBaseURL,
			TextModel:        defaultTextModel,
			TTSModel:         defaultTTSModel,
			ImageModel:       defaultImageModel,
			CallTimeoutMS:    defaultCallTimeoutMS,
			RetryAttempts:    defaultRetryAttempts,
			RetryBaseDelayMS: defaultRetryBaseDelayMS,
		},
		Cache: Cache{
			Capacity:        defaultCacheCapacity,
			SuccessTTLHours: defaultSuccessTTLHours,
			DegradedTTLMin:  defaultDegradedTTLMin,
		},
		Gamification: Gamification{
			HistoryCap:      defaultHistoryCap,
			LeaderboardSize: defaultLeaderboardSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
