package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeProvider()
	c.normalizeCache()
	c.normalizeGamification()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Cache.MirrorFile) != "" {
		if c.Cache.MirrorFile, err = expandPath(c.Cache.MirrorFile); err != nil {
			return fmt.Errorf("cache.mirror_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	origins := c.Server.AllowedOrigins[:0]
	for _, origin := range c.Server.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.Server.AllowedOrigins = origins
}

func (c *Config) normalizeProvider() {
	if len(c.Provider.APIKeys) == 0 {
		if value, ok := os.LookupEnv("ETYMON_API_KEYS"); ok {
			for _, key := range strings.Split(value, ",") {
				if trimmed := strings.TrimSpace(key); trimmed != "" {
					c.Provider.APIKeys = append(c.Provider.APIKeys, trimmed)
				}
			}
		}
	}
	keys := c.Provider.APIKeys[:0]
	for _, key := range c.Provider.APIKeys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	c.Provider.APIKeys = keys

	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}
	if strings.TrimSpace(c.Provider.TextModel) == "" {
		c.Provider.TextModel = defaultTextModel
	}
	if strings.TrimSpace(c.Provider.TTSModel) == "" {
		c.Provider.TTSModel = defaultTTSModel
	}
	if strings.TrimSpace(c.Provider.ImageModel) == "" {
		c.Provider.ImageModel = defaultImageModel
	}
	if c.Provider.CallTimeoutMS <= 0 {
		c.Provider.CallTimeoutMS = defaultCallTimeoutMS
	}
	if c.Provider.RetryAttempts <= 0 {
		c.Provider.RetryAttempts = defaultRetryAttempts
	}
	if c.Provider.RetryBaseDelayMS <= 0 {
		c.Provider.RetryBaseDelayMS = defaultRetryBaseDelayMS
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = defaultCacheCapacity
	}
	if c.Cache.SuccessTTLHours <= 0 {
		c.Cache.SuccessTTLHours = defaultSuccessTTLHours
	}
	if c.Cache.DegradedTTLMin <= 0 {
		c.Cache.DegradedTTLMin = defaultDegradedTTLMin
	}
}

func (c *Config) normalizeGamification() {
	if c.Gamification.HistoryCap <= 0 {
		c.Gamification.HistoryCap = defaultHistoryCap
	}
	if c.Gamification.LeaderboardSize <= 0 {
		c.Gamification.LeaderboardSize = defaultLeaderboardSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
