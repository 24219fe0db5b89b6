package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_DB", "")
	t.Setenv("AUTH_PASSWORD_RESET_TTL_MINUTES", "")
	t.Setenv("AUTH_VERIFICATION_CODE_TTL_MINUTES", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Auth.ResetTTL())
	assert.Equal(t, 10*time.Minute, cfg.Auth.CodeTTL())
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Empty(t, cfg.App.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_VERIFICATION_CODE_TTL_MINUTES", "0")
	t.Setenv("AUTH_MAX_CODE_ATTEMPTS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("NOTIFY_SMTP_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.App.Addr())
	assert.Equal(t, time.Duration(0), cfg.Auth.CodeTTL())
	assert.Equal(t, 5, cfg.Auth.MaxCodeAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.AllowedOrigins)
	assert.True(t, cfg.Notification.SMTPUseSSL)
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	assert.Error(t, err)
}

func TestDurationsFallBack(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
	assert.Equal(t, 15*time.Minute, AuthConfig{}.AttemptWindow())
	assert.Equal(t, 10*time.Second, NotificationConfig{}.DeliveryTimeout())
}
