package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "unit-test")
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("STORE_DRIVER", StoreDriverMemory)
}

func TestNewConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, time.Hour, cfg.JwtTTL())
	assert.Equal(t, uint64(3), cfg.TxMaxRetries)
	assert.Equal(t, 1000, cfg.TxBackoffBaseMs)
	assert.Equal(t, 2.0, cfg.TxBackoffFactor)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins())
}

func TestNewConfig_LoadsFileWithoutOverridingEnv(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ADDRESS", ":9000")

	file := filepath.Join(t.TempDir(), "custom.env")
	require.NoError(t, os.WriteFile(file, []byte("ADDRESS=:7000\nJWT_TTL_MINUTES=15\nCORS_ORIGINS=https://a.example, https://b.example\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("JWT_TTL_MINUTES")
		os.Unsetenv("CORS_ORIGINS")
	})

	cfg, err := NewConfig(file)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Address)
	assert.Equal(t, 15*time.Minute, cfg.JwtTTL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestValidate(t *testing.T) {
	base := Configuration{
		JwtSecret:      "a-very-long-test-secret",
		JwtTTLMinutes:  60,
		StoreDriver:    StoreDriverMongo,
		MongoDB_URI:    "mongodb://localhost:27017",
		MongoDB_DBName: "backoffice",
	}
	require.NoError(t, base.Validate())

	noURI := base
	noURI.MongoDB_URI = ""
	assert.ErrorContains(t, noURI.Validate(), "MONGODB_CONNECTION_URI")

	badDriver := base
	badDriver.StoreDriver = "redis"
	assert.ErrorContains(t, badDriver.Validate(), "STORE_DRIVER")

	shortSecret := base
	shortSecret.JwtSecret = "short"
	assert.ErrorContains(t, shortSecret.Validate(), "JWT_SECRET")

	adminNoPassword := base
	adminNoPassword.BootstrapAdminEmail = "admin@example.com"
	assert.ErrorContains(t, adminNoPassword.Validate(), "BOOTSTRAP_ADMIN_PASSWORD")
}

func TestNewConfig_RequiresSecret(t *testing.T) {
	t.Setenv("GO_ENV", "unit-test")
	t.Setenv("STORE_DRIVER", StoreDriverMemory)
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := NewConfig()
	assert.Error(t, err)
}
