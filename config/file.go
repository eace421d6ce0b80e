package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Service defaults.
const (
	DefaultAPIBaseURL     = "https://content.guardianapis.com/"
	DefaultFeedBaseURL    = "https://www.theguardian.com/"
	DefaultAPIKey         = "test"
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 10 * time.Second
	DefaultLogLevel       = "info"
)

// Environment variables, applied over the config file.
const (
	EnvAPIBaseURL     = "NEWSREADER_API_BASE_URL"
	EnvAPIKey         = "NEWSREADER_API_KEY"
	EnvFeedBaseURL    = "NEWSREADER_FEED_BASE_URL"
	EnvPreferencesDSN = "NEWSREADER_PREFERENCES_DSN"
	EnvLogLevel       = "NEWSREADER_LOG_LEVEL"
	EnvBrowser        = "NEWSREADER_BROWSER"
)

// FileConfig represents the structure of ~/.newsreader/config.yaml.
type FileConfig struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Key     string `yaml:"key"`
		FeedURL string `yaml:"feed_url"`
	} `yaml:"api"`
	HTTP struct {
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		UserAgent      string        `yaml:"user_agent"`
		RateLimit      float64       `yaml:"rate_limit"`
	} `yaml:"http"`
	Storage struct {
		Preferences struct {
			DSN string `yaml:"dsn"`
		} `yaml:"preferences"`
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Browser struct {
		Command string `yaml:"command"`
	} `yaml:"browser"`
}

// Settings is the resolved configuration of a reader process.
type Settings struct {
	APIBaseURL     string
	APIKey         string
	FeedBaseURL    string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	UserAgent      string
	RateLimit      float64 // requests per second, 0 = unlimited
	PreferencesDSN string
	LogLevel       string
	BrowserCommand string // empty = platform default
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	dsn := "preferences.db"
	if home, err := os.UserHomeDir(); err == nil {
		dsn = filepath.Join(home, ".newsreader", "preferences.db")
	}

	return Settings{
		APIBaseURL:     DefaultAPIBaseURL,
		APIKey:         DefaultAPIKey,
		FeedBaseURL:    DefaultFeedBaseURL,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		PreferencesDSN: dsn,
		LogLevel:       DefaultLogLevel,
	}
}

// ConfigFilePath returns ~/.newsreader/config.yaml.
func ConfigFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".newsreader", "config.yaml"), nil
}

// LoadConfigFile loads configuration from ~/.newsreader/config.yaml. Returns
// nil if the file doesn't exist (not an error). Returns error if the file
// exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFileFrom(configPath)
}

// LoadConfigFileFrom is LoadConfigFile for an explicit path.
func LoadConfigFileFrom(configPath string) (*FileConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Load resolves settings with precedence environment > config file >
// defaults. A config file that cannot be read is reported but does not stop
// resolution: the returned settings are still usable.
func Load() (Settings, error) {
	cfg, err := LoadConfigFile()
	settings := Resolve(cfg, os.Getenv)
	return settings, err
}

// Resolve applies cfg (may be nil) and then the environment, read through
// getenv, over the defaults.
func Resolve(cfg *FileConfig, getenv func(string) string) Settings {
	s := DefaultSettings()

	if cfg != nil {
		if cfg.API.BaseURL != "" {
			s.APIBaseURL = cfg.API.BaseURL
		}
		if cfg.API.Key != "" {
			s.APIKey = cfg.API.Key
		}
		if cfg.API.FeedURL != "" {
			s.FeedBaseURL = cfg.API.FeedURL
		}
		if cfg.HTTP.ConnectTimeout > 0 {
			s.ConnectTimeout = cfg.HTTP.ConnectTimeout
		}
		if cfg.HTTP.ReadTimeout > 0 {
			s.ReadTimeout = cfg.HTTP.ReadTimeout
		}
		if cfg.HTTP.UserAgent != "" {
			s.UserAgent = cfg.HTTP.UserAgent
		}
		if cfg.HTTP.RateLimit > 0 {
			s.RateLimit = cfg.HTTP.RateLimit
		}
		if cfg.Storage.Preferences.DSN != "" {
			s.PreferencesDSN = cfg.Storage.Preferences.DSN
		}
		if cfg.Log.Level != "" {
			s.LogLevel = cfg.Log.Level
		}
		if cfg.Browser.Command != "" {
			s.BrowserCommand = cfg.Browser.Command
		}
	}

	if val := getenv(EnvAPIBaseURL); val != "" {
		s.APIBaseURL = val
	}
	if val := getenv(EnvAPIKey); val != "" {
		s.APIKey = val
	}
	if val := getenv(EnvFeedBaseURL); val != "" {
		s.FeedBaseURL = val
	}
	if val := getenv(EnvPreferencesDSN); val != "" {
		s.PreferencesDSN = val
	}
	if val := getenv(EnvLogLevel); val != "" {
		s.LogLevel = val
	}
	if val := getenv(EnvBrowser); val != "" {
		s.BrowserCommand = val
	}

	return s
}

// SlogLevel maps the configured level name to a slog level. Unknown names
// map to info.
func (s Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultConfigTemplate = `# newsreader configuration
#
# Environment variables override these values:
#   NEWSREADER_API_BASE_URL, NEWSREADER_API_KEY, NEWSREADER_FEED_BASE_URL,
#   NEWSREADER_PREFERENCES_DSN, NEWSREADER_LOG_LEVEL, NEWSREADER_BROWSER

api:
  base_url: %s
  key: %s
  feed_url: %s

http:
  connect_timeout: %s
  read_timeout: %s
  rate_limit: 0

storage:
  preferences:
    dsn: %s

log:
  level: %s

browser:
  command: ""
`

// WriteDefaultConfigFile writes a config file holding the defaults to
// ConfigFilePath. An existing file is left alone unless force is set. The
// returned bool reports whether a file was written.
func WriteDefaultConfigFile(force bool) (bool, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return false, err
	}
	return WriteDefaultConfigFileTo(configPath, force)
}

// WriteDefaultConfigFileTo is WriteDefaultConfigFile for an explicit path.
func WriteDefaultConfigFileTo(configPath string, force bool) (bool, error) {
	if _, err := os.Stat(configPath); err == nil && !force {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	d := DefaultSettings()
	content := fmt.Sprintf(defaultConfigTemplate,
		d.APIBaseURL, d.APIKey, d.FeedBaseURL,
		d.ConnectTimeout, d.ReadTimeout,
		d.PreferencesDSN, d.LogLevel)

	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
