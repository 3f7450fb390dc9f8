package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_YAMLAndDefaults(t *testing.T) {
	req := require.New(t)

	path := writeConfig(t, `
http:
  addr: ":8081"
storage:
  driver: badger
  badger:
    inMemory: true
ws:
  pingInterval: 5s
`)
	cfg, err := LoadConfig(path)
	req.NoError(err)

	req.Equal(":8081", cfg.HTTP.Addr)
	req.Equal(":9000", cfg.GRPC.Addr)
	req.Equal(5*time.Second, cfg.WS.PingInterval)
	req.True(cfg.Storage.Badger.InMemory)
	req.Empty(cfg.Storage.Badger.Path)
	req.Equal("chat-service", cfg.Logging.Service)
	req.Equal("/media/", cfg.Media.URLPrefix)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	req := require.New(t)

	path := writeConfig(t, `
http:
  addr: ":8081"
storage:
  driver: badger
`)
	t.Setenv("CHAT_HTTP_ADDR", ":9999")
	t.Setenv("CHAT_STORAGE_DRIVER", "postgres")
	t.Setenv("CHAT_STORAGE_POSTGRES_DSN", "postgres://u:p@db/chat")
	t.Setenv("CHAT_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CHAT_WS_SEND_BUFFER", "8")

	cfg, err := LoadConfig(path)
	req.NoError(err)

	req.Equal(":9999", cfg.HTTP.Addr)
	req.Equal(DriverPostgres, cfg.Storage.Driver)
	req.Equal("postgres://u:p@db/chat", cfg.Storage.Postgres.DSN)
	req.Equal([]string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	req.Equal(8, cfg.WS.SendBuffer)
}

func TestLoadConfig_Validation(t *testing.T) {
	req := require.New(t)

	_, err := LoadConfig(writeConfig(t, "storage:\n  driver: mongo\n"))
	req.Error(err)

	_, err = LoadConfig(writeConfig(t, "storage:\n  driver: postgres\n"))
	req.ErrorContains(err, "dsn")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	req.Error(err)
}

func TestShippedConfigParses(t *testing.T) {
	cfg, err := LoadConfig("config.yaml")
	require.NoError(t, err)
	require.Equal(t, DriverBadger, cfg.Storage.Driver)
	require.Equal(t, 4000, cfg.Chat.MaxContentLen)
}
