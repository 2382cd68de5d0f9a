package config

import (
	"time"

	"natours/pkg/database"
)

// DatabaseConfig points at a replica set; review writes need transactions.
type DatabaseConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	MaxPoolSize    int           `yaml:"max_pool_size"`
	MinPoolSize    int           `yaml:"min_pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
	MigrateTimeout time.Duration `yaml:"migrate_timeout"`
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		Database:       getEnv("MONGODB_DATABASE", "natours"),
		MaxPoolSize:    getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
		MinPoolSize:    getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
		ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:  getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
		MigrateTimeout: getEnvAsDuration("MONGODB_MIGRATE_TIMEOUT", time.Minute),
	}
}

// Connection is the subset the driver wrapper needs. Both binaries connect
// through it.
func (c *DatabaseConfig) Connection() *database.DatabaseConfig {
	return &database.DatabaseConfig{
		URI:            c.URI,
		Database:       c.Database,
		MaxPoolSize:    c.MaxPoolSize,
		MinPoolSize:    c.MinPoolSize,
		ConnectTimeout: c.ConnectTimeout,
		SocketTimeout:  c.SocketTimeout,
	}
}
