package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/mindengage-gradebook/internal/config"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "DB_DSN", "ENABLE_LOCAL_AUTH", "LOG_JSON", "RECOMPUTE_WORKERS", "CORS_ORIGINS_OFFLINE"} {
		t.Setenv(k, "")
	}
	cfg := config.FromEnv()

	assert.Equal(t, config.ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.EnableLocalAuth)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, 4, cfg.RecomputeWorkers)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3010"}, cfg.CORSOrigins())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("ENABLE_LOCAL_AUTH", "")
	t.Setenv("RECOMPUTE_WORKERS", "16")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	t.Setenv("LOG_JSON", "0")

	cfg := config.FromEnv()
	assert.Equal(t, config.ModeOnline, cfg.Mode)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.False(t, cfg.EnableLocalAuth)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, 16, cfg.RecomputeWorkers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestFromEnvBadWorkers(t *testing.T) {
	t.Setenv("RECOMPUTE_WORKERS", "lots")
	assert.Equal(t, 4, config.FromEnv().RecomputeWorkers)
}
