package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JOBPORTAL_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APPLY_RATE_LIMIT", "")
	t.Setenv("STRICT_STATUS_TRANSITIONS", "")
	t.Setenv("SEED_FILE", "")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 20, cfg.Apply.RateLimit)
	assert.Equal(t, time.Minute, cfg.Apply.RateWindow)
	assert.False(t, cfg.Apply.StrictTransitions)
	assert.NotEmpty(t, cfg.JWTSigningKey)
	assert.Empty(t, cfg.SeedFile)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JOBPORTAL_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("APPLY_RATE_LIMIT", "5")
	t.Setenv("APPLY_RATE_WINDOW", "30s")
	t.Setenv("STRICT_STATUS_TRANSITIONS", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("SEED_FILE", "testdata/seed.json")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://localhost/jobs", cfg.Database.URL)
	assert.Equal(t, 5, cfg.Apply.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.Apply.RateWindow)
	assert.True(t, cfg.Apply.StrictTransitions)
	assert.Equal(t, "testdata/seed.json", cfg.SeedFile)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns, "invalid values fall back to defaults")
}
