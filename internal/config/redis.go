package config

import (
	"time"

	"natours/pkg/cache"
)

// RedisConfig is optional. When disabled the rate limiter counts in process
// and tour stats are not cached.
type RedisConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PoolSize    int           `yaml:"pool_size"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	IOTimeout   time.Duration `yaml:"io_timeout"`
	StatsTTL    time.Duration `yaml:"stats_ttl"`
}

func loadRedisConfig() *RedisConfig {
	return &RedisConfig{
		Enabled:     getEnvAsBool("REDIS_ENABLED", false),
		Host:        getEnv("REDIS_HOST", "localhost"),
		Port:        getEnvAsInt("REDIS_PORT", 6379),
		Password:    getEnv("REDIS_PASSWORD", ""),
		DB:          getEnvAsInt("REDIS_DB", 0),
		PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 10),
		DialTimeout: getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		IOTimeout:   getEnvAsDuration("REDIS_IO_TIMEOUT", 3*time.Second),
		StatsTTL:    getEnvAsDuration("REDIS_STATS_TTL", 10*time.Minute),
	}
}

func (c *RedisConfig) Client() *cache.RedisConfig {
	return &cache.RedisConfig{
		Host:         c.Host,
		Port:         c.Port,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.PoolSize / 3,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.IOTimeout,
		WriteTimeout: c.IOTimeout,
	}
}
