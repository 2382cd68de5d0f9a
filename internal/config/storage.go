package config

// StorageConfig selects where user photos go: "local" serves them from disk
// under BaseURL, "s3" uploads them to a bucket.
type StorageConfig struct {
	Provider string              `yaml:"provider"`
	Local    *LocalStorageConfig `yaml:"local"`
	AWS      *AWSStorageConfig   `yaml:"aws"`
}

type LocalStorageConfig struct {
	BasePath string `yaml:"base_path"`
	BaseURL  string `yaml:"base_url"`
}

type AWSStorageConfig struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	CDNDomain string `yaml:"cdn_domain"`
}

func (c *StorageConfig) UsesS3() bool {
	return c.Provider == "s3"
}

func loadStorageConfig() *StorageConfig {
	cfg := &StorageConfig{
		Provider: getEnv("STORAGE_PROVIDER", "local"),
		Local: &LocalStorageConfig{
			BasePath: getEnv("STORAGE_LOCAL_PATH", "./public/img/users"),
			BaseURL:  getEnv("STORAGE_LOCAL_URL", "/img/users"),
		},
	}
	if cfg.UsesS3() {
		cfg.AWS = &AWSStorageConfig{
			Region:    getEnv("AWS_S3_REGION", "us-east-1"),
			Bucket:    getEnv("AWS_S3_BUCKET", ""),
			Prefix:    getEnv("AWS_S3_PREFIX", "img/users"),
			CDNDomain: getEnv("AWS_CLOUDFRONT_DOMAIN", ""),
		}
	}
	return cfg
}
