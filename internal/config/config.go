// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Supported values for the runner selectors.
var (
	Environments   = []string{"dev", "qa", "prod"}
	CloudProviders = []string{CloudLocal, CloudBrowserStack, CloudLambdaTest}
	BrowserEngines = []string{"chromium", "firefox", "webkit"}
	DatabaseKinds  = []string{DBCosmos, DBMySQL, DBPostgres, DBSQLite}
)

const (
	CloudLocal        = "local"
	CloudBrowserStack = "browserstack"
	CloudLambdaTest   = "lambdatest"

	DBCosmos   = "cosmos"
	DBMySQL    = "mysql"
	DBPostgres = "postgresql"
	DBSQLite   = "sqlite"
)

// Config holds the entire runner configuration.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Environment EnvironmentConfig `mapstructure:"environment" yaml:"environment"`
	App         AppConfig         `mapstructure:"app" yaml:"app"`
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Cloud       CloudConfig       `mapstructure:"cloud" yaml:"cloud"`
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Session     SessionConfig     `mapstructure:"session" yaml:"session"`
	Ledger      LedgerConfig      `mapstructure:"ledger" yaml:"ledger"`
	Notify      NotifyConfig      `mapstructure:"notify" yaml:"notify"`
	Report      ReportConfig      `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// EnvironmentConfig selects which .env.<name> file is loaded.
type EnvironmentConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	Dir  string `mapstructure:"dir" yaml:"dir"`
}

// AppConfig describes the application under test.
type AppConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Timeout is the page level timeout in seconds (the TIMEOUT env key).
	Timeout int `mapstructure:"timeout" yaml:"timeout"`
}

// PageTimeout returns the page level timeout as a duration.
func (a AppConfig) PageTimeout() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

// BrowserConfig holds settings for provisioning browsers.
type BrowserConfig struct {
	Engine            string         `mapstructure:"engine" yaml:"engine"`
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	ActionTimeout     time.Duration  `mapstructure:"action_timeout" yaml:"action_timeout"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	LaunchTimeout     time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	Install           bool           `mapstructure:"install" yaml:"install"`
	InstallTimeout    time.Duration  `mapstructure:"install_timeout" yaml:"install_timeout"`
}

// ViewportConfig is the browsing context size.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// CloudConfig holds the remote grid credentials and capability metadata.
type CloudConfig struct {
	Provider          string          `mapstructure:"provider" yaml:"provider"`
	Build             string          `mapstructure:"build" yaml:"build"`
	Project           string          `mapstructure:"project" yaml:"project"`
	PlaywrightVersion string          `mapstructure:"playwright_version" yaml:"playwright_version"`
	BrowserStack      GridCredentials `mapstructure:"browserstack" yaml:"browserstack"`
	LambdaTest        GridCredentials `mapstructure:"lambdatest" yaml:"lambdatest"`
}

// GridCredentials authenticate against a cloud grid.
type GridCredentials struct {
	Username  string `mapstructure:"username" yaml:"username"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
}

// DatabaseConfig holds the cleanup backend selection and connection details.
type DatabaseConfig struct {
	Use            string          `mapstructure:"use" yaml:"use"`
	Cosmos         CosmosConfig    `mapstructure:"cosmos" yaml:"cosmos"`
	MySQL          MySQLConfig     `mapstructure:"mysql" yaml:"mysql"`
	Postgres       PostgresConfig  `mapstructure:"postgres" yaml:"postgres"`
	SQLite         SQLiteConfig    `mapstructure:"sqlite" yaml:"sqlite"`
	SessionCleanup []CleanupTarget `mapstructure:"session_cleanup" yaml:"session_cleanup"`
}

// CosmosConfig holds the connection details for a Cosmos DB account.
type CosmosConfig struct {
	Host              string `mapstructure:"host" yaml:"host"`
	Key               string `mapstructure:"key" yaml:"key"`
	Database          string `mapstructure:"database" yaml:"database"`
	Container         string `mapstructure:"container" yaml:"container"`
	PartitionKeyField string `mapstructure:"partition_key_field" yaml:"partition_key_field"`
}

// MySQLConfig holds the connection details for a MySQL database.
type MySQLConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
}

// PostgresConfig holds the connection details for a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// SQLiteConfig points at a local database file.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// CleanupTarget is a container/where pair cleaned once at session end.
type CleanupTarget struct {
	Container string `mapstructure:"container" yaml:"container"`
	Where     string `mapstructure:"where" yaml:"where"`
}

// SessionConfig drives test selection and session orchestration.
type SessionConfig struct {
	Retries        int      `mapstructure:"retries" yaml:"retries"`
	Suites         []string `mapstructure:"suites" yaml:"suites"`
	Tags           []string `mapstructure:"tags" yaml:"tags"`
	ElementsDir    string   `mapstructure:"elements_dir" yaml:"elements_dir"`
	TestDataDir    string   `mapstructure:"testdata_dir" yaml:"testdata_dir"`
	ScreenshotsDir string   `mapstructure:"screenshots_dir" yaml:"screenshots_dir"`
}

// LedgerConfig selects where retry history is kept. An empty RedisAddr keeps
// it in process memory.
type LedgerConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// NotifyConfig configures result event publishing. An empty NatsURL disables it.
type NotifyConfig struct {
	NatsURL string `mapstructure:"nats_url" yaml:"nats_url"`
	Subject string `mapstructure:"subject" yaml:"subject"`
}

// ReportConfig controls the generated reports.
type ReportConfig struct {
	HTMLPath  string `mapstructure:"html_path" yaml:"html_path"`
	JUnitPath string `mapstructure:"junit_path" yaml:"junit_path"`
	JSONPath  string `mapstructure:"json_path" yaml:"json_path"`
	Title     string `mapstructure:"title" yaml:"title"`
	Project   string `mapstructure:"project" yaml:"project"`
	Version   string `mapstructure:"version" yaml:"version"`
	Author    string `mapstructure:"author" yaml:"author"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "uiprobe")
	v.SetDefault("logger.log_file", "logs/uiprobe.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Environment --
	v.SetDefault("environment.name", "dev")
	v.SetDefault("environment.dir", "config/environments")

	// -- App --
	v.SetDefault("app.timeout", 30)

	// -- Browser --
	v.SetDefault("browser.engine", "chromium")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport.width", 1920)
	v.SetDefault("browser.viewport.height", 1080)
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.launch_timeout", "60s")
	v.SetDefault("browser.install", false)
	v.SetDefault("browser.install_timeout", "5m")

	// -- Cloud --
	v.SetDefault("cloud.provider", CloudLocal)
	v.SetDefault("cloud.build", "Playwright Build")
	v.SetDefault("cloud.project", "Playwright Automation")
	v.SetDefault("cloud.playwright_version", "1.42.0")
	v.SetDefault("cloud.browserstack.endpoint", "wss://cdp.browserstack.com/playwright")
	v.SetDefault("cloud.lambdatest.endpoint", "wss://cdp.lambdatest.com/playwright")

	// -- Database --
	v.SetDefault("database.use", "")
	v.SetDefault("database.cosmos.partition_key_field", "id")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.sqlite.path", "uiprobe.db")

	// -- Session --
	v.SetDefault("session.retries", 0)
	v.SetDefault("session.elements_dir", "elements")
	v.SetDefault("session.testdata_dir", "testdata")
	v.SetDefault("session.screenshots_dir", "screenshots")

	// -- Ledger --
	v.SetDefault("ledger.key_prefix", "uiprobe")
	v.SetDefault("ledger.ttl", "24h")

	// -- Notify --
	v.SetDefault("notify.subject", "uiprobe.results")

	// -- Report --
	v.SetDefault("report.html_path", "reports/report.html")
	v.SetDefault("report.title", "Playwright Automation HTML Report")
	v.SetDefault("report.project", "Playwright Automation")
	v.SetDefault("report.version", "1.0.0")
	v.SetDefault("report.author", "QA Automation")
}

// bindLegacyEnv maps the environment file keys onto configuration keys.
func bindLegacyEnv(v *viper.Viper) {
	bindings := map[string]string{
		"app.base_url":                        "FACEBOOK_BASE_URL",
		"app.timeout":                         "TIMEOUT",
		"cloud.browserstack.username":         "BROWSERSTACK_USERNAME",
		"cloud.browserstack.access_key":       "BROWSERSTACK_ACCESS_KEY",
		"cloud.lambdatest.username":           "LT_USERNAME",
		"cloud.lambdatest.access_key":         "LT_ACCESS_KEY",
		"database.use":                        "DBUSE",
		"database.cosmos.host":                "COSMOS_DB_HOST",
		"database.cosmos.key":                 "COSMOS_DB_KEY",
		"database.cosmos.database":            "COSMOS_DB_NAME",
		"database.cosmos.container":           "COSMOS_DB_CONTAINER",
		"database.cosmos.partition_key_field": "COSMOS_DB_PARTITION_KEY",
		"database.mysql.host":                 "MYSQL_HOST",
		"database.mysql.port":                 "MYSQL_PORT",
		"database.mysql.dbname":               "MYSQL_DB",
		"database.mysql.user":                 "MYSQL_USER",
		"database.mysql.password":             "MYSQL_PASSWORD",
		"database.postgres.host":              "POSTGRES_HOST",
		"database.postgres.port":              "POSTGRES_PORT",
		"database.postgres.dbname":            "POSTGRES_DB",
		"database.postgres.user":              "POSTGRES_USER",
		"database.postgres.password":          "POSTGRES_PASSWORD",
		"database.sqlite.path":                "SQLITE_PATH",
	}
	for key, env := range bindings {
		// UIPROBE_ prefixed names keep precedence over the legacy names.
		prefixed := "UIPROBE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, env)
	}
}

// NewConfigFromViper creates a new configuration instance from a viper object.
// Environment files must already be loaded into the process environment.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	bindLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Key: "*", Err: fmt.Errorf("error unmarshaling config: %w", err)}
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every configured filesystem path.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.Logger.LogFile,
		&c.Environment.Dir,
		&c.Database.SQLite.Path,
		&c.Session.ElementsDir,
		&c.Session.TestDataDir,
		&c.Session.ScreenshotsDir,
		&c.Report.HTMLPath,
		&c.Report.JUnitPath,
		&c.Report.JSONPath,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return &ConfigError{Key: "path", Err: fmt.Errorf("expanding %q: %w", *p, err)}
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if !oneOf(c.Environment.Name, Environments) {
		return &ConfigError{Key: "environment.name", Err: fmt.Errorf("must be one of %v, got %q", Environments, c.Environment.Name)}
	}
	if c.App.BaseURL == "" {
		return &ConfigError{Key: "FACEBOOK_BASE_URL", Err: ErrMissingValue}
	}
	if c.App.Timeout <= 0 {
		return &ConfigError{Key: "app.timeout", Err: fmt.Errorf("must be a positive number of seconds")}
	}
	if err := c.Browser.Validate(); err != nil {
		return err
	}
	if err := c.Cloud.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.Session.Retries < 0 {
		return &ConfigError{Key: "session.retries", Err: fmt.Errorf("must not be negative")}
	}
	return nil
}

// Validate checks the browser selection.
func (b *BrowserConfig) Validate() error {
	if !oneOf(b.Engine, BrowserEngines) {
		return &ConfigError{Key: "browser.engine", Err: fmt.Errorf("must be one of %v, got %q", BrowserEngines, b.Engine)}
	}
	if b.Viewport.Width <= 0 || b.Viewport.Height <= 0 {
		return &ConfigError{Key: "browser.viewport", Err: fmt.Errorf("width and height must be positive")}
	}
	return nil
}

// Validate checks that the selected provider has credentials.
func (c *CloudConfig) Validate() error {
	switch c.Provider {
	case CloudLocal:
		return nil
	case CloudBrowserStack:
		if c.BrowserStack.Username == "" || c.BrowserStack.AccessKey == "" {
			return &ConfigError{Key: "BROWSERSTACK_USERNAME/BROWSERSTACK_ACCESS_KEY", Err: ErrMissingValue}
		}
	case CloudLambdaTest:
		if c.LambdaTest.Username == "" || c.LambdaTest.AccessKey == "" {
			return &ConfigError{Key: "LT_USERNAME/LT_ACCESS_KEY", Err: ErrMissingValue}
		}
	default:
		return &ConfigError{Key: "cloud.provider", Err: fmt.Errorf("must be one of %v, got %q", CloudProviders, c.Provider)}
	}
	return nil
}

// Validate checks the cleanup backend selection. An empty Use disables cleanup.
func (d *DatabaseConfig) Validate() error {
	switch d.Use {
	case "":
		return nil
	case DBCosmos:
		if d.Cosmos.Host == "" || d.Cosmos.Key == "" || d.Cosmos.Database == "" {
			return &ConfigError{Key: "COSMOS_DB_HOST/COSMOS_DB_KEY/COSMOS_DB_NAME", Err: ErrMissingValue}
		}
	case DBMySQL:
		if d.MySQL.Host == "" || d.MySQL.DBName == "" {
			return &ConfigError{Key: "MYSQL_HOST/MYSQL_DB", Err: ErrMissingValue}
		}
	case DBPostgres:
		if d.Postgres.Host == "" || d.Postgres.DBName == "" {
			return &ConfigError{Key: "POSTGRES_HOST/POSTGRES_DB", Err: ErrMissingValue}
		}
	case DBSQLite:
		if d.SQLite.Path == "" {
			return &ConfigError{Key: "SQLITE_PATH", Err: ErrMissingValue}
		}
	default:
		return &ConfigError{Key: "DBUSE", Err: fmt.Errorf("unsupported database type %q, want one of %v", d.Use, DatabaseKinds)}
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
