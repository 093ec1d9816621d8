package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config represents application configuration
type Config struct {
	Hurma    HurmaConfig    `mapstructure:"hurma"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Log      LogConfig      `mapstructure:"log"`
	Calendar CalendarConfig `mapstructure:"calendar"`
}

// HurmaConfig represents Hurma HR connection settings
type HurmaConfig struct {
	Host     string        `mapstructure:"host"`
	Email    string        `mapstructure:"email"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelegramConfig represents Telegram delivery settings
type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	ChatID      string `mapstructure:"chat_id"`      // numeric id or @channel
	APIEndpoint string `mapstructure:"api_endpoint"` // optional Bot API override
}

// NotifyConfig represents message settings
type NotifyConfig struct {
	Language  string `mapstructure:"language"`
	SkipEmpty bool   `mapstructure:"skip_empty"`
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	Schedule     string `mapstructure:"schedule"` // cron expression
	NextDay      bool   `mapstructure:"next_day"`
	WorkdaysOnly bool   `mapstructure:"workdays_only"`
	Timezone     string `mapstructure:"timezone"`
	SystemTray   bool   `mapstructure:"system_tray"` // Windows only
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// CalendarConfig represents production calendar configuration
type CalendarConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Environment variables understood without a config file
var envBindings = map[string]string{
	"hurma.host":            "HURMA_HOST",
	"hurma.email":           "HURMA_EMAIL",
	"hurma.password":        "HURMA_PASSWORD",
	"hurma.timeout":         "HURMA_TIMEOUT",
	"telegram.bot_token":    "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":      "TELEGRAM_CHAT_ID",
	"telegram.api_endpoint": "TELEGRAM_API_ENDPOINT",
	"notify.language":       "NOTIFY_LANGUAGE",
	"notify.skip_empty":     "NOTIFY_SKIP_EMPTY",
	"daemon.schedule":       "DAEMON_SCHEDULE",
	"daemon.next_day":       "DAEMON_NEXT_DAY",
	"daemon.workdays_only":  "DAEMON_WORKDAYS_ONLY",
	"daemon.timezone":       "DAEMON_TIMEZONE",
	"daemon.system_tray":    "DAEMON_SYSTEM_TRAY",
	"log.file":              "LOG_FILE",
	"log.level":             "LOG_LEVEL",
	"calendar.base_url":     "CALENDAR_BASE_URL",
	"calendar.timeout":      "CALENDAR_TIMEOUT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hurma.timeout", 30*time.Second)
	v.SetDefault("notify.language", "ru")
	v.SetDefault("notify.skip_empty", false)
	v.SetDefault("daemon.schedule", "0 9 * * 1-5")
	v.SetDefault("daemon.timezone", "Europe/Moscow")
	v.SetDefault("log.level", "info")
	v.SetDefault("calendar.base_url", "https://isdayoff.ru")
	v.SetDefault("calendar.timeout", 10*time.Second)
}

// Load loads configuration from an optional file, a .env file and the environment.
// Environment variables take precedence over the file.
func Load(configPath string) (*Config, error) {
	// .env is optional, just like the config file
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.hurma-bot")
		v.AddConfigPath("/etc/hurma-bot")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	return &config, nil
}

// Validate validates the configuration.
// Telegram settings are only required when messages are actually delivered.
func (c *Config) Validate(requireTelegram bool) error {
	if c.Hurma.Host == "" {
		return fmt.Errorf("hurma.host is required")
	}
	if !strings.HasPrefix(c.Hurma.Host, "http://") && !strings.HasPrefix(c.Hurma.Host, "https://") {
		return fmt.Errorf("hurma.host must start with http:// or https://, got %q", c.Hurma.Host)
	}
	if c.Hurma.Email == "" {
		return fmt.Errorf("hurma.email is required")
	}
	if c.Hurma.Password == "" {
		return fmt.Errorf("hurma.password is required")
	}

	if requireTelegram {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required")
		}
	}

	switch c.Notify.Language {
	case "ru", "en":
	default:
		return fmt.Errorf("notify.language must be 'ru' or 'en', got '%s'", c.Notify.Language)
	}

	return nil
}

// GetLocation returns the daemon timezone, falling back to MSK (UTC+3)
func (c *DaemonConfig) GetLocation() *time.Location {
	if c.Timezone == "" {
		return time.FixedZone("MSK", 3*60*60)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Hurma.Host = os.ExpandEnv(c.Hurma.Host)
	c.Telegram.BotToken = os.ExpandEnv(c.Telegram.BotToken)
	c.Telegram.ChatID = os.ExpandEnv(c.Telegram.ChatID)
}
