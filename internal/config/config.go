package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	"gopkg.in/yaml.v3"

	"tasker/internal/constants"
	"tasker/internal/logger"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr                string `yaml:"addr"`
	ReadTimeoutSecs     int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs    int    `yaml:"write_timeout_secs"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_secs"`
}

// ReadTimeout returns the read timeout as time.Duration.
func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSecs) * time.Second
}

// WriteTimeout returns the write timeout as time.Duration.
func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSecs) * time.Second
}

// ShutdownTimeout returns the graceful shutdown budget as time.Duration.
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  *bool  `yaml:"auto_migrate"`
}

// Migrate reports whether the server should run migrations on start.
// Unset means yes.
func (c *DatabaseConfig) Migrate() bool {
	return c.AutoMigrate == nil || *c.AutoMigrate
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	TokenTTLSecs        int64  `yaml:"token_ttl_secs"`
	MACKeyBytes         int    `yaml:"mac_key_bytes"`
	HashWorkers         int    `yaml:"hash_workers"`
	Argon2MemoryKiB     uint32 `yaml:"argon2_memory_kib"`
	Argon2Iterations    uint32 `yaml:"argon2_iterations"`
	Argon2Parallelism   uint8  `yaml:"argon2_parallelism"`
	JanitorIntervalMins int    `yaml:"janitor_interval_mins"`
	RenewWindowHours    int    `yaml:"renew_window_hours"`
}

// JanitorInterval returns the expired-token sweep period.
func (c *AuthConfig) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalMins) * time.Minute
}

// RenewWindow returns how long an expired token set stays renewable.
func (c *AuthConfig) RenewWindow() time.Duration {
	return time.Duration(c.RenewWindowHours) * time.Hour
}

// RateLimitConfig holds limiter rates in "<limit>-<period>" form, e.g. "30-M".
type RateLimitConfig struct {
	Tokens string `yaml:"tokens"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ApplyDefaults fills zero-valued fields with constant defaults.
func (cfg *Config) ApplyDefaults() {
	// Server defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = constants.DefaultListenAddr
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = constants.DefaultReadTimeoutSecs
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = constants.DefaultWriteTimeoutSecs
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = constants.DefaultShutdownTimeoutSecs
	}

	// Database defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = constants.DriverSQLite
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == constants.DriverSQLite {
		cfg.Database.DSN = filepath.Join(GetConfigDir(), constants.DefaultDBFile)
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = constants.DefaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = constants.DefaultMaxIdleConns
	}

	// Auth defaults
	if cfg.Auth.TokenTTLSecs == 0 {
		cfg.Auth.TokenTTLSecs = constants.AuthDefaultTokenTTL
	}
	if cfg.Auth.MACKeyBytes == 0 {
		cfg.Auth.MACKeyBytes = constants.AuthDefaultMACKeyBytes
	}
	if cfg.Auth.Argon2MemoryKiB == 0 {
		cfg.Auth.Argon2MemoryKiB = constants.Argon2DefaultMemoryKiB
	}
	if cfg.Auth.Argon2Iterations == 0 {
		cfg.Auth.Argon2Iterations = constants.Argon2DefaultIterations
	}
	if cfg.Auth.Argon2Parallelism == 0 {
		cfg.Auth.Argon2Parallelism = constants.Argon2DefaultParallelism
	}
	if cfg.Auth.JanitorIntervalMins == 0 {
		cfg.Auth.JanitorIntervalMins = int(constants.AuthJanitorInterval.Minutes())
	}
	if cfg.Auth.RenewWindowHours == 0 {
		cfg.Auth.RenewWindowHours = constants.AuthDefaultRenewWindowHours
	}
	// HashWorkers stays 0: the worker pool sizes itself to NumCPU.

	// Rate limit defaults
	if cfg.RateLimit.Tokens == "" {
		cfg.RateLimit.Tokens = constants.DefaultTokenRateLimit
	}

	// Log defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = constants.DefaultLogLevel
	}
}

// validate checks that all configurable values are within acceptable ranges.
func (cfg *Config) validate() error {
	var errs []string

	// Server validation
	if cfg.Server.ReadTimeoutSecs < 1 {
		errs = append(errs, "server.read_timeout_secs must be >= 1")
	}
	if cfg.Server.WriteTimeoutSecs < 1 {
		errs = append(errs, "server.write_timeout_secs must be >= 1")
	}
	if cfg.Server.ShutdownTimeoutSecs < 1 {
		errs = append(errs, "server.shutdown_timeout_secs must be >= 1")
	}

	// Database validation
	switch cfg.Database.Driver {
	case constants.DriverSQLite, constants.DriverPostgres:
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be %q or %q", constants.DriverSQLite, constants.DriverPostgres))
	}
	if cfg.Database.DSN == "" {
		errs = append(errs, "database.dsn is required")
	}
	if cfg.Database.MaxOpenConns < 1 {
		errs = append(errs, "database.max_open_conns must be >= 1")
	}
	if cfg.Database.MaxIdleConns < 0 || cfg.Database.MaxIdleConns > cfg.Database.MaxOpenConns {
		errs = append(errs, "database.max_idle_conns must be between 0 and database.max_open_conns")
	}

	// Auth validation
	if cfg.Auth.TokenTTLSecs < 1 {
		errs = append(errs, "auth.token_ttl_secs must be >= 1")
	}
	if cfg.Auth.MACKeyBytes < constants.AuthMACKeyMinBytes {
		errs = append(errs, fmt.Sprintf("auth.mac_key_bytes must be >= %d", constants.AuthMACKeyMinBytes))
	}
	if cfg.Auth.HashWorkers < 0 {
		errs = append(errs, "auth.hash_workers must be >= 0")
	}
	if cfg.Auth.Argon2MemoryKiB < constants.Argon2MinMemoryKiB {
		errs = append(errs, fmt.Sprintf("auth.argon2_memory_kib must be >= %d", constants.Argon2MinMemoryKiB))
	}
	if cfg.Auth.Argon2MemoryKiB > constants.Argon2MaxMemoryKiB {
		errs = append(errs, fmt.Sprintf("auth.argon2_memory_kib must be <= %d", constants.Argon2MaxMemoryKiB))
	}
	if cfg.Auth.Argon2Iterations > constants.Argon2MaxIterations {
		errs = append(errs, fmt.Sprintf("auth.argon2_iterations must be <= %d", constants.Argon2MaxIterations))
	}
	if cfg.Auth.Argon2Parallelism > constants.Argon2MaxParallelism {
		errs = append(errs, fmt.Sprintf("auth.argon2_parallelism must be <= %d", constants.Argon2MaxParallelism))
	}
	if cfg.Auth.JanitorIntervalMins < 1 {
		errs = append(errs, "auth.janitor_interval_mins must be >= 1")
	}
	if cfg.Auth.RenewWindowHours < 0 {
		errs = append(errs, "auth.renew_window_hours must be >= 0")
	}

	// Rate limit validation
	if _, err := limiter.NewRateFromFormatted(cfg.RateLimit.Tokens); err != nil {
		errs = append(errs, fmt.Sprintf("rate_limit.tokens is invalid: %v", err))
	}

	// Log validation
	if !logger.ValidLevel(cfg.Log.Level) {
		errs = append(errs, "log.level must be one of DEBUG, INFO, WARN, ERROR")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LogEffectiveValues logs all effective configuration values at startup.
// The database DSN may carry credentials and is not logged.
func (cfg *Config) LogEffectiveValues(log *logger.Logger) {
	log.Info("config: server.addr=%s", cfg.Server.Addr)
	log.Info("config: server.read_timeout_secs=%d", cfg.Server.ReadTimeoutSecs)
	log.Info("config: server.write_timeout_secs=%d", cfg.Server.WriteTimeoutSecs)
	log.Info("config: server.shutdown_timeout_secs=%d", cfg.Server.ShutdownTimeoutSecs)
	log.Info("config: database.driver=%s", cfg.Database.Driver)
	log.Info("config: database.max_open_conns=%d", cfg.Database.MaxOpenConns)
	log.Info("config: database.max_idle_conns=%d", cfg.Database.MaxIdleConns)
	log.Info("config: database.auto_migrate=%t", cfg.Database.Migrate())
	log.Info("config: auth.token_ttl_secs=%d", cfg.Auth.TokenTTLSecs)
	log.Info("config: auth.mac_key_bytes=%d", cfg.Auth.MACKeyBytes)
	log.Info("config: auth.hash_workers=%d", cfg.Auth.HashWorkers)
	log.Info("config: auth.argon2_memory_kib=%d", cfg.Auth.Argon2MemoryKiB)
	log.Info("config: auth.argon2_iterations=%d", cfg.Auth.Argon2Iterations)
	log.Info("config: auth.argon2_parallelism=%d", cfg.Auth.Argon2Parallelism)
	log.Info("config: auth.janitor_interval_mins=%d", cfg.Auth.JanitorIntervalMins)
	log.Info("config: auth.renew_window_hours=%d", cfg.Auth.RenewWindowHours)
	log.Info("config: rate_limit.tokens=%s", cfg.RateLimit.Tokens)
	log.Info("config: log.level=%s", cfg.Log.Level)
	log.Info("config: log.dir=%s", cfg.Log.Dir)
}

func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, constants.ConfigDir)
}

func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), constants.ConfigFile)
}

func EnsureConfigDir() error {
	configDir := GetConfigDir()
	return os.MkdirAll(configDir, constants.DirPermissions)
}

// ResolvePath picks the config file: the explicit path if set, then
// $TASKER_CONFIG, then the per-user default.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(constants.ConfigEnvVar); env != "" {
		return env
	}
	return GetConfigPath()
}

// Load reads the config file chosen by ResolvePath. A missing default file
// is created with defaults; a missing explicit file is an error.
func Load(explicit string) (*Config, error) {
	configPath := ResolvePath(explicit)
	usingDefault := configPath == GetConfigPath()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) && usingDefault {
		cfg := &Config{}
		cfg.ApplyDefaults()
		if err := SaveConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}

	// Apply defaults for missing fields
	cfg.ApplyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig writes cfg to the per-user default path.
func SaveConfig(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	configPath := GetConfigPath()
	return os.WriteFile(configPath, data, constants.FilePermissions)
}
