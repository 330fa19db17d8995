package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		secret      string
		dbPassword  string
		sslMode     string
		expectError bool
	}{
		{"Production with disable SSL mode", "production", "secure-secret-at-least-32-chars-long", "secure", "disable", true},
		{"Production with require SSL mode", "production", "secure-secret-at-least-32-chars-long", "secure", "require", false},
		{"Prod with default secret", "prod", defaultJWTSecret, "secure", "require", true},
		{"Production with short secret", "production", "short", "secure", "require", true},
		{"Production with default db password", "production", "secure-secret-at-least-32-chars-long", "password", "require", true},
		{"Development with defaults", "development", defaultJWTSecret, "password", "disable", false},
		{"Test with empty SSL mode", "test", "short", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Env:        tt.env,
				JWTSecret:  tt.secret,
				DBPassword: tt.dbPassword,
				DBSSLMode:  tt.sslMode,
				Port:       "8080",
			}

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRequired(t *testing.T) {
	assert.Error(t, (&Config{JWTSecret: "x"}).Validate())
	assert.Error(t, (&Config{Port: "8080"}).Validate())
}

func TestLoadConfig_EnvironmentAndNormalization(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("APP_ENV", "  Test ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("TOKEN_TTL_HOURS", "0")
	t.Setenv("PORT", "9999")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL())
	assert.Equal(t, 5*time.Second, c.NotificationTimeout())
	assert.Equal(t, 50, c.BodyLimitMB)
}

func TestLoadConfig_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SOCIALPOST_TEST_ONLY=1\nFEATURE_FLAGS=post_notifications,beta\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("APP_ENV", "test")
	// godotenv does not override variables that are already set.
	t.Setenv("FEATURE_FLAGS", "")
	os.Unsetenv("FEATURE_FLAGS")
	t.Cleanup(func() { os.Unsetenv("SOCIALPOST_TEST_ONLY") })

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "1", os.Getenv("SOCIALPOST_TEST_ONLY"))
	assert.Equal(t, "post_notifications,beta", c.FeatureFlags)
}
