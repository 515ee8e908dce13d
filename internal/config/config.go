package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	AppName     = "contractor-pro"
	EnvFileName = "config.env"
	EnvPrefix   = "CONTRACTORPRO"
)

// Config holds application configuration.
type Config struct {
	MockMode       bool          `mapstructure:"mock_mode"`
	ServiceTimeout time.Duration `mapstructure:"service_timeout"`

	Mock     MockConfig
	Gemini   GeminiConfig
	Cache    CacheConfig
	Log      LogConfig
	Telegram TelegramConfig
	Capture  CaptureConfig
}

// MockConfig holds the simulated latency of the mock services.
type MockConfig struct {
	EstimateDelay time.Duration `mapstructure:"estimate_delay"`
	RenderDelay   time.Duration `mapstructure:"render_delay"`
}

// GeminiConfig holds provider settings.
type GeminiConfig struct {
	APIKey        string `mapstructure:"api_key"`
	EstimateModel string `mapstructure:"estimate_model"`
	ImageModel    string `mapstructure:"image_model"`
}

// CacheConfig holds sqlite settings for the estimate cache. An empty path
// disables caching.
type CacheConfig struct {
	Path string
	TTL  time.Duration
}

type LogConfig struct {
	File  string
	Level string
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	AdminID  int64  `mapstructure:"admin_id"`
}

// CaptureConfig selects the capture device: a file path, an http(s) URL, or
// empty for the built-in sample photo.
type CaptureConfig struct {
	Source string
}

// Dir returns the application's config directory path.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configBase, AppName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	dir, err := Dir()
	if err != nil {
		return
	}
	_ = godotenv.Load(filepath.Join(dir, EnvFileName))
}

// Load reads configuration from defaults, an optional config.toml and env.
// Env var overrides use prefix CONTRACTORPRO_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("mock_mode", true)
	v.SetDefault("service_timeout", 60*time.Second)
	v.SetDefault("mock.estimate_delay", 3*time.Second)
	v.SetDefault("mock.render_delay", 5*time.Second)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.estimate_model", "gemini-3-flash-preview")
	v.SetDefault("gemini.image_model", "gemini-2.5-flash-image")
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.ttl", 7*24*time.Hour)
	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("log.level", "info")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.admin_id", 0)
	v.SetDefault("capture.source", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv(EnvPrefix + "_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	return c, nil
}

func defaultLogFile() string {
	dir, err := Dir()
	if err != nil {
		return AppName + ".log"
	}
	return filepath.Join(dir, AppName+".log")
}

// Missing returns the env var names of required settings that are unset.
// Bot settings are only required when forBot is set.
func (c Config) Missing(forBot bool) []string {
	var missing []string
	if !c.MockMode && c.Gemini.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if forBot {
		if c.Telegram.BotToken == "" {
			missing = append(missing, EnvPrefix+"_TELEGRAM_BOT_TOKEN")
		}
		if c.Telegram.AdminID == 0 {
			missing = append(missing, EnvPrefix+"_TELEGRAM_ADMIN_ID")
		}
	}
	return missing
}

// Validate checks required settings and value ranges.
func (c Config) Validate(forBot bool) error {
	var errs []error
	if missing := c.Missing(forBot); len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", ")))
	}
	if c.ServiceTimeout < 0 {
		errs = append(errs, fmt.Errorf("service_timeout must not be negative, got %s", c.ServiceTimeout))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err))
	}
	return errors.Join(errs...)
}

// LogLevel returns the configured zerolog level, defaulting to info.
func (c Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
