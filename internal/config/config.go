package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Server contains HTTP serving configuration.
type Server struct {
	Bind           string   `toml:"bind"`
	APIToken       string   `toml:"api_token"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Provider contains configuration for the generative AI provider.
type Provider struct {
	APIKeys          []string `toml:"api_keys"`
	BaseURL          string   `toml:"base_url"`
	TextModel        string   `toml:"text_model"`
	TTSModel         string   `toml:"tts_model"`
	ImageModel       string   `toml:"image_model"`
	CallTimeoutMS    int      `toml:"call_timeout_ms"`
	RetryAttempts    int      `toml:"retry_attempts"`
	RetryBaseDelayMS int      `toml:"retry_base_delay_ms"`
}

// Cache contains configuration for the lookup result cache.
type Cache struct {
	Capacity        int    `toml:"capacity"`
	SuccessTTLHours int    `toml:"success_ttl_hours"`
	DegradedTTLMin  int    `toml:"degraded_ttl_minutes"`
	MirrorFile      string `toml:"mirror_file"`
}

// Gamification contains tuning for the progress engine.
type Gamification struct {
	HistoryCap       int  `toml:"history_cap"`
	LeaderboardSize  int  `toml:"leaderboard_size"`
	AllowClientMerge bool `toml:"allow_client_merge"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for etymon.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and cache directories
//   - Server: HTTP bind address, optional bearer token, CORS origins
//   - Provider: generative AI credentials, models, and retry policy
//   - Cache: result cache capacity and TTL split
//   - Gamification: history cap, leaderboard size, merge trust flag
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Server       Server       `toml:"server"`
	Provider     Provider     `toml:"provider"`
	Cache        Cache        `toml:"cache"`
	Gamification Gamification `toml:"gamification"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/etymon/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("etymon.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for server operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "etymon.db")
}

// LockPath returns the lock file guarding exclusive access to the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "etymon.lock")
}

// CacheMirrorPath returns the result cache mirror file location.
func (c *Config) CacheMirrorPath() string {
	if strings.TrimSpace(c.Cache.MirrorFile) != "" {
		return c.Cache.MirrorFile
	}
	return filepath.Join(c.Paths.CacheDir, "results.json")
}

// CallTimeout returns the provider wall-clock timeout as a duration.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Provider.CallTimeoutMS) * time.Millisecond
}

// RetryBaseDelay returns the provider retry base delay as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Provider.RetryBaseDelayMS) * time.Millisecond
}

// SuccessTTL returns the cache TTL applied to genuine results.
func (c *Config) SuccessTTL() time.Duration {
	return time.Duration(c.Cache.SuccessTTLHours) * time.Hour
}

// DegradedTTL returns the cache TTL applied to degraded results.
func (c *Config) DegradedTTL() time.Duration {
	return time.Duration(c.Cache.DegradedTTLMin) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
