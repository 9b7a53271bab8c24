package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/teleshop/core/config"
	coredatabase "github.com/m3rciful/teleshop/core/database"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadParsesAllSections(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
  run_mode: webhook
webhook:
  url: "https://shop.example.com/api/bot"
database:
  host: db
  port: "5432"
  user: shop
  password: secret
  name: teleshop
  sslmode: disable
  max_connections: 8
storage:
  endpoint: "http://minio:9000"
  bucket: products
  access_key: minioadmin
  secret_key: minioadmin
`)

	cfg, err := coreconfig.Load(path)
	require.NoError(t, err)

	require.Equal(t, int64(42), cfg.Telegram.AdminID)
	require.Equal(t, coreconfig.RunModeWebhook, cfg.Telegram.RunMode)
	require.Equal(t, "0.0.0.0", cfg.Webhook.Listen)
	require.Equal(t, 8080, cfg.Webhook.Port)

	require.Equal(t, "db", cfg.Database.Host)
	require.Equal(t, "teleshop", cfg.Database.Name)
	require.Equal(t, 8, cfg.Database.MaxConnections)
}

// The database section converts into the connection struct used by
// core/database without the config package importing it.
func TestDatabaseConfigConverts(t *testing.T) {
	src := coreconfig.DatabaseConfig{
		Host:           "db",
		Port:           "5432",
		User:           "shop",
		Password:       "secret",
		Name:           "teleshop",
		SSLMode:        "disable",
		MaxConnections: 8,
	}

	dst := coredatabase.Config(src)
	require.Equal(t, src.Host, dst.Host)
	require.Equal(t, src.Name, dst.Name)
	require.Equal(t, src.MaxConnections, dst.MaxConnections)
}

func TestNormalizeRejectsUnknownRunMode(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
  run_mode: carrier-pigeon
storage:
  bucket: products
  access_key: minioadmin
  secret_key: minioadmin
`)

	_, err := coreconfig.Load(path)
	require.ErrorContains(t, err, "run_mode")
}
