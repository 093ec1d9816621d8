package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
hurma:
  host: https://company.hurma.work
  email: hr@example.com
  password: secret
  timeout: 15s
telegram:
  bot_token: "123:abc"
  chat_id: "-100200300"
daemon:
  schedule: "30 8 * * *"
  next_day: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://company.hurma.work", cfg.Hurma.Host)
	assert.Equal(t, "hr@example.com", cfg.Hurma.Email)
	assert.Equal(t, 15*time.Second, cfg.Hurma.Timeout)
	assert.Equal(t, "-100200300", cfg.Telegram.ChatID)
	assert.Equal(t, "30 8 * * *", cfg.Daemon.Schedule)
	assert.True(t, cfg.Daemon.NextDay)

	// defaults
	assert.Equal(t, "ru", cfg.Notify.Language)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://isdayoff.ru", cfg.Calendar.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Calendar.Timeout)

	assert.NoError(t, cfg.Validate(true))
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
hurma:
  host: https://file.hurma.work
  email: file@example.com
  password: file-secret
`)

	t.Setenv("HURMA_HOST", "https://env.hurma.work")
	t.Setenv("HURMA_PASSWORD", "env-secret")
	t.Setenv("TELEGRAM_CHAT_ID", "@hr_channel")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.hurma.work", cfg.Hurma.Host)
	assert.Equal(t, "file@example.com", cfg.Hurma.Email)
	assert.Equal(t, "env-secret", cfg.Hurma.Password)
	assert.Equal(t, "@hr_channel", cfg.Telegram.ChatID)
}

func TestLoad_EnvironmentOnly(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("HOME", t.TempDir())
	t.Setenv("HURMA_HOST", "https://env.hurma.work")
	t.Setenv("HURMA_EMAIL", "env@example.com")
	t.Setenv("HURMA_PASSWORD", "pw")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.hurma.work", cfg.Hurma.Host)
	assert.Equal(t, 30*time.Second, cfg.Hurma.Timeout)
	assert.NoError(t, cfg.Validate(false))
	assert.Error(t, cfg.Validate(true))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Hurma:    HurmaConfig{Host: "https://x.hurma.work", Email: "a@b.c", Password: "p"},
			Telegram: TelegramConfig{BotToken: "t", ChatID: "1"},
			Notify:   NotifyConfig{Language: "ru"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing host", func(c *Config) { c.Hurma.Host = "" }, "hurma.host is required"},
		{"host without scheme", func(c *Config) { c.Hurma.Host = "x.hurma.work" }, "http://"},
		{"missing email", func(c *Config) { c.Hurma.Email = "" }, "hurma.email"},
		{"missing password", func(c *Config) { c.Hurma.Password = "" }, "hurma.password"},
		{"missing bot token", func(c *Config) { c.Telegram.BotToken = "" }, "telegram.bot_token"},
		{"missing chat", func(c *Config) { c.Telegram.ChatID = "" }, "telegram.chat_id"},
		{"bad language", func(c *Config) { c.Notify.Language = "de" }, "notify.language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate(true)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDaemonConfig_GetLocation(t *testing.T) {
	cfg := &DaemonConfig{Timezone: "Not/AZone"}
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, cfg.GetLocation()).Zone()
	assert.Equal(t, 3*60*60, offset)

	cfg = &DaemonConfig{Timezone: "UTC"}
	assert.Equal(t, time.UTC, cfg.GetLocation())
}
