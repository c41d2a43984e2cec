// File: internal/config/config_test.go
package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "dev", cfg.Environment.Name)
	assert.Equal(t, "config/environments", cfg.Environment.Dir)
	assert.Equal(t, 30, cfg.App.Timeout)
	assert.Equal(t, 30*time.Second, cfg.App.PageTimeout())
	assert.Equal(t, "chromium", cfg.Browser.Engine)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.Viewport.Width)
	assert.Equal(t, 1080, cfg.Browser.Viewport.Height)
	assert.Equal(t, 10*time.Second, cfg.Browser.ActionTimeout)
	assert.Equal(t, CloudLocal, cfg.Cloud.Provider)
	assert.Equal(t, "Playwright Build", cfg.Cloud.Build)
	assert.Equal(t, 3306, cfg.Database.MySQL.Port)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "id", cfg.Database.Cosmos.PartitionKeyField)
	assert.Equal(t, 0, cfg.Session.Retries)
	assert.Equal(t, "screenshots", cfg.Session.ScreenshotsDir)
}

// -- Validation Logic Tests --

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.App.BaseURL = "https://www.facebook.com"
	return cfg
}

func TestConfigValidation(t *testing.T) {
	t.Run("Valid Defaults With Base URL", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("Missing Base URL", func(t *testing.T) {
		cfg := NewDefaultConfig()
		err := cfg.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfig)
		assert.ErrorIs(t, err, ErrMissingValue)
		assert.Contains(t, err.Error(), "FACEBOOK_BASE_URL")
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"Unknown Environment", func(c *Config) { c.Environment.Name = "staging" }, "environment.name"},
		{"Non Positive Timeout", func(c *Config) { c.App.Timeout = 0 }, "app.timeout"},
		{"Unknown Engine", func(c *Config) { c.Browser.Engine = "edge" }, "browser.engine"},
		{"Zero Viewport", func(c *Config) { c.Browser.Viewport.Width = 0 }, "browser.viewport"},
		{"Unknown Cloud", func(c *Config) { c.Cloud.Provider = "saucelabs" }, "cloud.provider"},
		{"BrowserStack Without Credentials", func(c *Config) { c.Cloud.Provider = CloudBrowserStack }, "BROWSERSTACK_USERNAME/BROWSERSTACK_ACCESS_KEY"},
		{"LambdaTest Without Credentials", func(c *Config) { c.Cloud.Provider = CloudLambdaTest }, "LT_USERNAME/LT_ACCESS_KEY"},
		{"Unknown Database", func(c *Config) { c.Database.Use = "oracle" }, "DBUSE"},
		{"Postgres Without Host", func(c *Config) { c.Database.Use = DBPostgres }, "POSTGRES_HOST/POSTGRES_DB"},
		{"Cosmos Without Key", func(c *Config) { c.Database.Use = DBCosmos; c.Database.Cosmos.Host = "h" }, "COSMOS_DB_HOST/COSMOS_DB_KEY/COSMOS_DB_NAME"},
		{"Negative Retries", func(c *Config) { c.Session.Retries = -1 }, "session.retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantKey, cfgErr.Key)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}

	t.Run("Cloud Credentials Present", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cloud.Provider = CloudLambdaTest
		cfg.Cloud.LambdaTest.Username = "user"
		cfg.Cloud.LambdaTest.AccessKey = "key"
		assert.NoError(t, cfg.Validate())
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
app:
  base_url: "https://example.test"
browser:
  engine: firefox
session:
  retries: 2
database:
  session_cleanup:
    - container: customer
      where: "c.email = 'qa@example.test'"
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "https://example.test", cfg.App.BaseURL)
		assert.Equal(t, "firefox", cfg.Browser.Engine)
		assert.Equal(t, 2, cfg.Session.Retries)
		require.Len(t, cfg.Database.SessionCleanup, 1)
		assert.Equal(t, "customer", cfg.Database.SessionCleanup[0].Container)
		assert.Equal(t, "info", cfg.Logger.Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("app.base_url", "https://example.test")
		v.Set("browser.engine", "netscape")

		cfg, err := NewConfigFromViper(v)
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.ErrorIs(t, err, ErrConfig)
	})

	t.Run("Legacy Environment Variable Binding", func(t *testing.T) {
		t.Setenv("FACEBOOK_BASE_URL", "https://legacy.example.test")
		t.Setenv("TIMEOUT", "45")
		t.Setenv("DBUSE", "postgresql")
		t.Setenv("POSTGRES_HOST", "db.internal")
		t.Setenv("POSTGRES_DB", "qa")
		t.Setenv("POSTGRES_PORT", "6543")

		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "https://legacy.example.test", cfg.App.BaseURL)
		assert.Equal(t, 45, cfg.App.Timeout)
		assert.Equal(t, DBPostgres, cfg.Database.Use)
		assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
		assert.Equal(t, 6543, cfg.Database.Postgres.Port)
	})

	t.Run("Prefixed Variable Wins Over Legacy Name", func(t *testing.T) {
		t.Setenv("FACEBOOK_BASE_URL", "https://legacy.example.test")
		t.Setenv("UIPROBE_APP_BASE_URL", "https://prefixed.example.test")

		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "https://prefixed.example.test", cfg.App.BaseURL)
	})
}

func TestLoadEnvironment(t *testing.T) {
	t.Run("Loads And Overrides", func(t *testing.T) {
		dir := t.TempDir()
		content := "FACEBOOK_BASE_URL=https://qa.example.test\nTIMEOUT=12\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.qa"), []byte(content), 0o600))

		// Registered so the overridden values are restored after the test.
		t.Setenv("FACEBOOK_BASE_URL", "https://stale.example.test")
		t.Setenv("TIMEOUT", "99")

		path, err := LoadEnvironment(dir, "qa")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ".env.qa"), path)
		assert.Equal(t, "https://qa.example.test", os.Getenv("FACEBOOK_BASE_URL"))
		assert.Equal(t, "12", os.Getenv("TIMEOUT"))
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadEnvironment(t.TempDir(), "prod")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfig)
		assert.ErrorIs(t, err, ErrEnvFileNotFound)
	})

	t.Run("Unknown Environment Name", func(t *testing.T) {
		_, err := LoadEnvironment(t.TempDir(), "staging")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfig)
	})
}
