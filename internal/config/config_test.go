package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.True(t, cfg.AuthKeyCheck)
	assert.Equal(t, 24*time.Hour, cfg.InitDataMaxAge)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, 20, cfg.AntiDDoSLimit)
	assert.Equal(t, time.Minute, cfg.AntiDDoSWindow)
	assert.Equal(t, 5*time.Minute, cfg.AntiDDoSBan)
	assert.Equal(t, 5*time.Second, cfg.TelegramAPITimeout)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("AUTH_KEY_CHECK", "false")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("ANTI_DDOS_BAN", "60")
	t.Setenv("RATE_LIMIT_WINDOW", "not-a-number")

	cfg := Load()

	assert.False(t, cfg.AuthKeyCheck)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.AntiDDoSBan)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
}
