// Package config loads the application configuration once at process
// start. The resulting Config struct is passed into constructors;
// business code never reads the environment directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized as overrides.
const (
	EnvConfigPath       = "PORTAL_CONFIG_PATH"
	EnvDBConnection     = "PORTAL_DB_CONNECTION"
	EnvJWTAccessSecret  = "PORTAL_JWT_ACCESS_SECRET"
	EnvJWTRefreshSecret = "PORTAL_JWT_REFRESH_SECRET"
	EnvJWTAccessExpiry  = "PORTAL_JWT_ACCESS_EXPIRY"
	EnvNBPBaseURL       = "PORTAL_NBP_BASE_URL"
	EnvMediaDir         = "PORTAL_MEDIA_DIR"
	EnvSeedAdminEmail   = "PORTAL_SEED_ADMIN_EMAIL"
	EnvSeedAdminPass    = "PORTAL_SEED_ADMIN_PASSWORD"
	EnvProduction       = "PORTAL_PRODUCTION"
)

// Defaults applied when the config file and environment omit a value.
const (
	defaultPort          = 8318
	defaultAccessExpiry  = 15 * time.Minute
	defaultRefreshExpiry = 7 * 24 * time.Hour
	defaultNBPBaseURL    = "https://api.nbp.pl/api"
	defaultNBPTimeout    = 5 * time.Second
	defaultMediaDir      = "./media"
	defaultLoginRPS      = 5
	defaultLoginBurst    = 10
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       int  `yaml:"port"`
	Production bool `yaml:"production"`
}

// DatabaseConfig holds the database connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// JWTConfig holds token secrets and lifetimes. Access and refresh
// tokens are signed with distinct secrets.
type JWTConfig struct {
	AccessSecret  string        `yaml:"access-secret"`
	RefreshSecret string        `yaml:"refresh-secret"`
	AccessExpiry  time.Duration `yaml:"access-expiry"`
	RefreshExpiry time.Duration `yaml:"refresh-expiry"`
}

// CurrencyConfig holds upstream rate provider settings.
type CurrencyConfig struct {
	NBPBaseURL string        `yaml:"nbp-base-url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// MediaConfig holds file storage settings.
type MediaConfig struct {
	Dir string `yaml:"dir"`
}

// SMTPConfig holds outbound mail settings. Mail is disabled when the
// host is empty.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// SeedAdminConfig holds the bootstrap super-admin credentials used to
// seed an empty database.
type SeedAdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// LoginThrottleConfig holds the per-IP login rate limit.
type LoginThrottleConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Config is the resolved application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Currency      CurrencyConfig      `yaml:"currency"`
	Media         MediaConfig         `yaml:"media"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	SeedAdmin     SeedAdminConfig     `yaml:"seed-admin"`
	Log           LogConfig           `yaml:"log"`
	LoginThrottle LoginThrottleConfig `yaml:"login-throttle"`
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the YAML config file, applies environment overrides, and
// fills in defaults. A missing file is not an error; the environment
// alone can carry a complete configuration.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	} else if !os.IsNotExist(errRead) {
		return nil, fmt.Errorf("read config file: %w", errRead)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if errValidate := cfg.validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

// applyEnvOverrides copies recognized environment variables over file values.
func applyEnvOverrides(cfg *Config) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if secret := strings.TrimSpace(os.Getenv(EnvJWTAccessSecret)); secret != "" {
		cfg.JWT.AccessSecret = secret
	}
	if secret := strings.TrimSpace(os.Getenv(EnvJWTRefreshSecret)); secret != "" {
		cfg.JWT.RefreshSecret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTAccessExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			cfg.JWT.AccessExpiry = expiry
		}
	}
	if base := strings.TrimSpace(os.Getenv(EnvNBPBaseURL)); base != "" {
		cfg.Currency.NBPBaseURL = base
	}
	if dir := strings.TrimSpace(os.Getenv(EnvMediaDir)); dir != "" {
		cfg.Media.Dir = dir
	}
	if email := strings.TrimSpace(os.Getenv(EnvSeedAdminEmail)); email != "" {
		cfg.SeedAdmin.Email = email
	}
	if pass := strings.TrimSpace(os.Getenv(EnvSeedAdminPass)); pass != "" {
		cfg.SeedAdmin.Password = pass
	}
	if prodRaw := strings.TrimSpace(os.Getenv(EnvProduction)); prodRaw != "" {
		if prod, errParse := strconv.ParseBool(prodRaw); errParse == nil {
			cfg.Server.Production = prod
		}
	}
}

// applyDefaults fills unset values.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		cfg.Server.Port = defaultPort
	}
	if cfg.JWT.AccessExpiry <= 0 {
		cfg.JWT.AccessExpiry = defaultAccessExpiry
	}
	if cfg.JWT.RefreshExpiry <= 0 {
		cfg.JWT.RefreshExpiry = defaultRefreshExpiry
	}
	if strings.TrimSpace(cfg.Currency.NBPBaseURL) == "" {
		cfg.Currency.NBPBaseURL = defaultNBPBaseURL
	}
	if cfg.Currency.Timeout <= 0 {
		cfg.Currency.Timeout = defaultNBPTimeout
	}
	if strings.TrimSpace(cfg.Media.Dir) == "" {
		cfg.Media.Dir = defaultMediaDir
	}
	if cfg.LoginThrottle.RPS <= 0 {
		cfg.LoginThrottle.RPS = defaultLoginRPS
	}
	if cfg.LoginThrottle.Burst <= 0 {
		cfg.LoginThrottle.Burst = defaultLoginBurst
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
}

// validate rejects configurations the server cannot start with.
func (c *Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("missing database dsn (set `database.dsn` or %s)", EnvDBConnection)
	}
	if strings.TrimSpace(c.JWT.AccessSecret) == "" {
		return fmt.Errorf("missing jwt access secret (set `jwt.access-secret` or %s)", EnvJWTAccessSecret)
	}
	if strings.TrimSpace(c.JWT.RefreshSecret) == "" {
		return fmt.Errorf("missing jwt refresh secret (set `jwt.refresh-secret` or %s)", EnvJWTRefreshSecret)
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return fmt.Errorf("jwt access and refresh secrets must differ")
	}
	return nil
}

// MailEnabled reports whether SMTP settings are present.
func (c *Config) MailEnabled() bool {
	return strings.TrimSpace(c.SMTP.Host) != "" && strings.TrimSpace(c.SMTP.From) != ""
}
