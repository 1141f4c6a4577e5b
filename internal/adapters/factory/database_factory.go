package factory

import (
	"context"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/adapters/memory"
	"github.com/hsdfat8/drivetrack/internal/adapters/mongodb"
	"github.com/hsdfat8/drivetrack/internal/adapters/postgres"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// DatabaseAdapterFactory creates database adapters based on configuration
type DatabaseAdapterFactory struct{}

// NewDatabaseAdapterFactory creates a new database adapter factory
func NewDatabaseAdapterFactory() *DatabaseAdapterFactory {
	return &DatabaseAdapterFactory{}
}

// CreateAdapter creates a database adapter based on the provided configuration
func (f *DatabaseAdapterFactory) CreateAdapter(config *ports.DatabaseConfig) (ports.DatabaseAdapter, error) {
	if config == nil {
		return nil, fmt.Errorf("database configuration is nil")
	}

	switch config.Type {
	case ports.DatabaseTypeMemory:
		return memory.NewAdapter(), nil

	case ports.DatabaseTypePostgreSQL:
		if config.PostgresConfig == nil {
			return nil, fmt.Errorf("postgres configuration is required for PostgreSQL adapter")
		}
		return postgres.NewPostgresAdapter(config.PostgresConfig), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// CreateAndConnectAdapter creates and connects a database adapter
func (f *DatabaseAdapterFactory) CreateAndConnectAdapter(ctx context.Context, config *ports.DatabaseConfig) (ports.DatabaseAdapter, error) {
	if err := f.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	adapter, err := f.CreateAdapter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapter: %w", err)
	}

	if err = adapter.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return adapter, nil
}

// ValidateConfig validates the database configuration
func (f *DatabaseAdapterFactory) ValidateConfig(config *ports.DatabaseConfig) error {
	if config == nil {
		return fmt.Errorf("database configuration is nil")
	}

	switch config.Type {
	case ports.DatabaseTypeMemory:
		return nil
	case ports.DatabaseTypePostgreSQL:
		return ValidatePostgresConfig(config.PostgresConfig)
	default:
		return fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// ValidatePostgresConfig checks connection and pool settings
func ValidatePostgresConfig(config *ports.PostgresConfig) error {
	if config == nil {
		return fmt.Errorf("postgres configuration is nil")
	}

	if config.Host == "" {
		return fmt.Errorf("postgres host is required")
	}

	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("postgres port must be between 1 and 65535")
	}

	if config.User == "" {
		return fmt.Errorf("postgres user is required")
	}

	if config.Database == "" {
		return fmt.Errorf("postgres database name is required")
	}

	if config.MaxOpenConns <= 0 {
		return fmt.Errorf("max_open_conns must be greater than 0")
	}

	if config.MaxIdleConns <= 0 {
		return fmt.Errorf("max_idle_conns must be greater than 0")
	}

	if config.MaxIdleConns > config.MaxOpenConns {
		return fmt.Errorf("max_idle_conns cannot be greater than max_open_conns")
	}

	return nil
}

// ValidateMongoDBConfig checks the performance store settings
func ValidateMongoDBConfig(config *ports.MongoDBConfig) error {
	if config == nil {
		return fmt.Errorf("mongodb configuration is nil")
	}

	if config.URI == "" {
		return fmt.Errorf("mongodb URI is required")
	}

	if config.Database == "" {
		return fmt.Errorf("mongodb database name is required")
	}

	if config.MaxPoolSize < 0 {
		return fmt.Errorf("max_pool_size cannot be negative")
	}

	if config.MinPoolSize < 0 {
		return fmt.Errorf("min_pool_size cannot be negative")
	}

	if config.MaxPoolSize > 0 && config.MinPoolSize > config.MaxPoolSize {
		return fmt.Errorf("min_pool_size cannot be greater than max_pool_size")
	}

	return nil
}

// GetDefaultPostgresConfig returns a default PostgreSQL configuration
func GetDefaultPostgresConfig() *ports.PostgresConfig {
	return &ports.PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "drivetrack",
		Database:        "drivetrack",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 300,
		ConnMaxIdleTime: 600,
		QueryTimeout:    30,
	}
}

// GetDefaultMongoDBConfig returns a default MongoDB performance store configuration
func GetDefaultMongoDBConfig() *ports.MongoDBConfig {
	return &ports.MongoDBConfig{
		URI:             "mongodb://localhost:27017",
		Database:        "drivetrack",
		Collection:      mongodb.DefaultCollection,
		MaxPoolSize:     20,
		MinPoolSize:     2,
		MaxConnIdleTime: 600,
		ServerTimeout:   30,
	}
}

// CreateDefaultConfig creates a default database configuration for the specified type
func CreateDefaultConfig(dbType ports.DatabaseType) *ports.DatabaseConfig {
	config := &ports.DatabaseConfig{
		Type: dbType,
	}

	if dbType == ports.DatabaseTypePostgreSQL {
		config.PostgresConfig = GetDefaultPostgresConfig()
	}

	return config
}
