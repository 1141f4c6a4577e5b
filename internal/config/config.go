package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DRIVETRACK_SERVER_PORT
const EnvPrefix = "DRIVETRACK"

// Config holds the application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Performance PerformanceConfig
	Cache       CacheConfig
	Logging     LoggingConfig
	Metrics     MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	EnableH2C       bool
}

// DatabaseConfig selects and configures the engine database
type DatabaseConfig struct {
	Type     string // "memory" or "postgres"
	Postgres PostgresConfig
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

// PerformanceConfig holds operator performance aggregation settings
type PerformanceConfig struct {
	Store          string // "primary" or "mongodb"
	WindowDays     int
	InactivityDays int
	MongoDB        MongoDBConfig
}

// MongoDBConfig holds the performance snapshot store configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Collection      string
	MaxPoolSize     int
	MinPoolSize     int
	MaxConnIdleTime time.Duration
	ServerTimeout   time.Duration
}

// CacheConfig holds the attention list cache configuration
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Redis   RedisConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string // "debug", "info", "warn", "error"
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from an optional .env file, the config file and environment variables
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/drivetrack")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings that have no safe fallback
func (c *Config) Validate() error {
	switch ports.DatabaseType(c.Database.Type) {
	case ports.DatabaseTypeMemory, ports.DatabaseTypePostgreSQL:
	default:
		return fmt.Errorf("unsupported database type: %q", c.Database.Type)
	}
	switch ports.PerformanceStoreType(c.Performance.Store) {
	case ports.PerformanceStorePrimary, ports.PerformanceStoreMongoDB:
	default:
		return fmt.Errorf("unsupported performance store: %q", c.Performance.Store)
	}
	if c.Performance.WindowDays < 0 || c.Performance.InactivityDays < 0 {
		return fmt.Errorf("performance window and inactivity days must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}
	return nil
}

// ListenAddr returns the HTTP listen address
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DatabaseAdapterConfig converts the database section for the adapter factory
func (c *Config) DatabaseAdapterConfig() *ports.DatabaseConfig {
	pg := c.Database.Postgres
	return &ports.DatabaseConfig{
		Type: ports.DatabaseType(c.Database.Type),
		PostgresConfig: &ports.PostgresConfig{
			Host:            pg.Host,
			Port:            pg.Port,
			User:            pg.User,
			Password:        pg.Password,
			Database:        pg.Database,
			SSLMode:         pg.SSLMode,
			MaxOpenConns:    pg.MaxOpenConns,
			MaxIdleConns:    pg.MaxIdleConns,
			ConnMaxLifetime: int(pg.ConnMaxLifetime.Seconds()),
			ConnMaxIdleTime: int(pg.ConnMaxIdleTime.Seconds()),
			QueryTimeout:    int(pg.QueryTimeout.Seconds()),
		},
	}
}

// MongoDBAdapterConfig converts the performance store section
func (c *Config) MongoDBAdapterConfig() *ports.MongoDBConfig {
	m := c.Performance.MongoDB
	return &ports.MongoDBConfig{
		URI:             m.URI,
		Database:        m.Database,
		Collection:      m.Collection,
		MaxPoolSize:     m.MaxPoolSize,
		MinPoolSize:     m.MinPoolSize,
		MaxConnIdleTime: int(m.MaxConnIdleTime.Seconds()),
		ServerTimeout:   int(m.ServerTimeout.Seconds()),
	}
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "120s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.enableH2C", true)

	// Database defaults
	v.SetDefault("database.type", string(ports.DatabaseTypeMemory))
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "drivetrack")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "drivetrack")
	v.SetDefault("database.postgres.sslMode", "disable")
	v.SetDefault("database.postgres.maxOpenConns", 25)
	v.SetDefault("database.postgres.maxIdleConns", 5)
	v.SetDefault("database.postgres.connMaxLifetime", "5m")
	v.SetDefault("database.postgres.connMaxIdleTime", "10m")
	v.SetDefault("database.postgres.queryTimeout", "30s")

	// Performance defaults
	v.SetDefault("performance.store", string(ports.PerformanceStorePrimary))
	v.SetDefault("performance.windowDays", 30)
	v.SetDefault("performance.inactivityDays", 7)
	v.SetDefault("performance.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("performance.mongodb.database", "drivetrack")
	v.SetDefault("performance.mongodb.collection", "operator_performance")
	v.SetDefault("performance.mongodb.maxPoolSize", 20)
	v.SetDefault("performance.mongodb.minPoolSize", 2)
	v.SetDefault("performance.mongodb.maxConnIdleTime", "10m")
	v.SetDefault("performance.mongodb.serverTimeout", "30s")

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.poolSize", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
