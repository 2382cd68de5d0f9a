package config

type MailConfig struct {
	Provider     string `yaml:"provider"`
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`
	ResendAPIKey string `yaml:"resend_api_key"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
}

func loadMailConfig() *MailConfig {
	return &MailConfig{
		Provider:     getEnv("MAIL_PROVIDER", "smtp"),
		FromEmail:    getEnv("MAIL_FROM_EMAIL", "hello@natours.io"),
		FromName:     getEnv("MAIL_FROM_NAME", "Natours"),
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
	}
}
