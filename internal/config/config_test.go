package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", ":memory:")
	t.Setenv("API_PREFIX", "api/fill-work/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.Database.DSN())
	assert.Equal(t, "/api/fill-work", cfg.Server.APIPrefix)
	assert.Equal(t, "/api/fill-work", cfg.Resolver.APIPrefix)
	assert.Equal(t, "operator", cfg.Resolver.FormType)
	assert.Equal(t, 30*time.Second, cfg.Resolver.RequestTimeout)
	assert.Contains(t, cfg.CORS.AllowedHeaders, "X-CSRFToken")
}

func TestLoad_PostgresRequiresPassword(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.EqualError(t, err, "DB_PASSWORD is required")
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid DB_PORT")
}

func TestDatabaseConfig_DSNEscapesPassword(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "postgres",
		Host:     "db",
		Port:     5432,
		Username: "mes",
		Password: "p@ss/word",
		Name:     "mes_db",
		SSLMode:  "disable",
	}

	assert.Equal(t, "postgres://mes:p%40ss%2Fword@db:5432/mes_db?sslmode=disable", cfg.DSN())
}

func TestValidate_UnsupportedStorage(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "sqlite", SQLitePath: "x.db"},
		Storage:  StorageConfig{Type: "ftp"},
	}
	assert.EqualError(t, cfg.Validate(), "unsupported STORAGE_TYPE: ftp")
}

func TestParseCommaSeparated(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseCommaSeparated(" a, ,b "))
	assert.Empty(t, parseCommaSeparated(""))
}
