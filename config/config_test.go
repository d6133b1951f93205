package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.ServerPort)
	assert.Equal(t, time.Hour, cfg.TokenMaxAge)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "admin123", cfg.Admin.Password)
	assert.Equal(t, "smtp", cfg.Mail.Transport)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "direct", cfg.Mail.Delivery)
	assert.Equal(t, "", cfg.Storage.Backend)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "  ")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("PORT", "8081")
	t.Setenv("MAIL_TRANSPORT", "log")
	t.Setenv("MAIL_USERNAME", "hr@example.com")
	t.Setenv("TOKEN_MAX_AGE", "30m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.ServerPort)
	assert.Equal(t, "log", cfg.Mail.Transport)
	assert.Equal(t, "hr@example.com", cfg.MailSender())
	assert.Equal(t, 30*time.Minute, cfg.TokenMaxAge)
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	base := Config{SecretKey: "s", TokenMaxAge: time.Hour}
	base.Mail.Transport = "smtp"
	base.Mail.Delivery = "direct"
	require.NoError(t, base.Validate())

	cfg := base
	cfg.Mail.Transport = "pigeon"
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Mail.Delivery = "later"
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Storage.Backend = "s3"
	assert.Error(t, cfg.Validate())
}

func TestLogFormat(t *testing.T) {
	assert.Equal(t, "json", Config{}.LogFormat())
	assert.Equal(t, "console", Config{Env: "dev"}.LogFormat())

	cfg := Config{Env: "dev"}
	cfg.Log.Format = "json"
	assert.Equal(t, "json", cfg.LogFormat())
}
