package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDriverDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://hr.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Holiday.CheckInterval)
	assert.Equal(t, "Asia/Manila", cfg.Location().String())
	assert.Equal(t, []string{"http://localhost:3000", "https://hr.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	cases := map[string]map[string]string{
		"postgres without password": {"STORAGE_DRIVER": "postgres", "JWT_SECRET_KEY": "secret"},
		"unknown driver":            {"STORAGE_DRIVER": "redis", "JWT_SECRET_KEY": "secret"},
		"missing secret":            {"STORAGE_DRIVER": "memory"},
		"bad locale":                {"STORAGE_DRIVER": "memory", "JWT_SECRET_KEY": "secret", "HOLIDAY_LOCALE": "Mars/Olympus"},
		"bad interval":              {"STORAGE_DRIVER": "memory", "JWT_SECRET_KEY": "secret", "HOLIDAY_CHECK_INTERVAL": "often"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{User: "hr", Password: "pw", Host: "db", Port: 5432, Name: "schedule_core", SSLMode: "disable"}}
	assert.Equal(t, "postgres://hr:pw@db:5432/schedule_core?sslmode=disable", cfg.DatabaseURL())
}
