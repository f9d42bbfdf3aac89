package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
storage:
  driver: memory
kafka:
  brokers: ["k1:9092", "k2:9092"]
lifecycle:
  cutoff: "16:30"
  timezone: Europe/Moscow
`))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "assignment-status-changed", cfg.Kafka.Topic)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, time.Minute, cfg.Lifecycle.SweepInterval)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)

	s, err := cfg.Lifecycle.Schedule()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", s.Location().String())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
storage:
  driver: memory
http:
  address: ":8080"
`))
	t.Setenv("HTTP_ADDRESS", ":9999")
	t.Setenv("LIFECYCLE_SWEEP_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Address)
	assert.Equal(t, 30*time.Second, cfg.Lifecycle.SweepInterval)
}

func TestLoadFromEnvOnly(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DB_URL", "postgres://localhost/assignments")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, int32(10), cfg.DB.MaxConns)
	assert.True(t, cfg.DB.Migrate)

	assert.Equal(t, "17:00", cfg.Lifecycle.Cutoff)
	s, err := cfg.Lifecycle.Schedule()
	require.NoError(t, err)
	assert.Equal(t, time.Local, s.Location(), "the cutoff defaults to local time")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"PostgresWithoutURL", "storage:\n  driver: postgres\n"},
		{"UnknownDriver", "storage:\n  driver: sqlite\n"},
		{"BadCutoff", "storage:\n  driver: memory\nlifecycle:\n  cutoff: \"5pm\"\n"},
		{"BadTimezone", "storage:\n  driver: memory\nlifecycle:\n  timezone: Mars/Olympus\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CONFIG_PATH", writeConfig(t, tc.body))
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
