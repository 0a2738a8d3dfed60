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
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
db:
  dsn: postgres://localhost/movies
auth:
  token_secret: secret
events:
  driver: nats
  url: nats://localhost:4222
`)
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9090", cfg.Server.Addr())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 20*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, EventsDriverNATS, cfg.Events.Driver)
	assert.False(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 3, cfg.Tasks.Workers)
}

func TestLoadErrors(t *testing.T) {
	testCases := map[string]string{
		"missing dsn": `
auth:
  token_secret: secret
`,
		"unknown events driver": `
db:
  dsn: postgres://localhost/movies
auth:
  token_secret: secret
events:
  driver: kafka
`,
		"broker without url": `
db:
  dsn: postgres://localhost/movies
auth:
  token_secret: secret
events:
  driver: amqp
`,
		"admin without password": `
db:
  dsn: postgres://localhost/movies
auth:
  token_secret: secret
admin:
  username: root
`,
	}
	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
