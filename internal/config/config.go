package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App       *AppConfig       `yaml:"app"`
	Database  *DatabaseConfig  `yaml:"database"`
	Redis     *RedisConfig     `yaml:"redis"`
	Mail      *MailConfig      `yaml:"mail"`
	Storage   *StorageConfig   `yaml:"storage"`
	Security  *SecurityConfig  `yaml:"security"`
	RateLimit *RateLimitConfig `yaml:"rate_limit"`
}

type AppConfig struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	Environment  string `yaml:"environment"`
	Port         int    `yaml:"port"`
	Host         string `yaml:"host"`
	BaseURL      string `yaml:"base_url"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTExpiresIn       time.Duration `yaml:"jwt_expires_in"`
	JWTCookieExpiresIn time.Duration `yaml:"jwt_cookie_expires_in"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
	PasswordMinLength  int           `yaml:"password_min_length"`
	ResetTokenTTL      time.Duration `yaml:"reset_token_ttl"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Max     int           `yaml:"max"`
	Window  time.Duration `yaml:"window"`
}

func Load() (*Config, error) {
	config := &Config{
		App:       loadAppConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Mail:      loadMailConfig(),
		Storage:   loadStorageConfig(),
		Security:  loadSecurityConfig(),
		RateLimit: loadRateLimitConfig(),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.App.IsProduction() && c.Security.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch c.Mail.Provider {
	case "smtp", "resend":
	default:
		return fmt.Errorf("unsupported MAIL_PROVIDER %q", c.Mail.Provider)
	}
	switch c.Storage.Provider {
	case "local":
	case "s3":
		if c.Storage.AWS.Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required when STORAGE_PROVIDER is s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", c.Storage.Provider)
	}
	return nil
}

const defaultJWTSecret = "my-ultra-secure-and-ultra-long-secret"

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:         getEnv("APP_NAME", "natours"),
		Version:      getEnv("APP_VERSION", "1.0.0"),
		Environment:  getEnv("APP_ENV", "development"),
		Port:         getEnvAsInt("APP_PORT", 3000),
		Host:         getEnv("APP_HOST", "0.0.0.0"),
		BaseURL:      getEnv("APP_BASE_URL", "http://localhost:3000"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		MaxBodyBytes: int64(getEnvAsInt("MAX_BODY_BYTES", 10*1024)),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiresIn:       getEnvAsDuration("JWT_EXPIRES_IN", 90*24*time.Hour),
		JWTCookieExpiresIn: getEnvAsDuration("JWT_COOKIE_EXPIRES_IN", 90*24*time.Hour),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		PasswordMinLength:  getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
		ResetTokenTTL:      getEnvAsDuration("RESET_TOKEN_TTL", 10*time.Minute),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func loadRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
		Max:     getEnvAsInt("RATE_LIMIT_MAX", 100),
		Window:  getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration also accepts a bare day count ("90d"), the format JWT_EXPIRES_IN
// is usually written in.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
