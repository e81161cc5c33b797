package util

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	LiveUpdateModePush = "push"
	LiveUpdateModePoll = "poll"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AllowedOrigins          []string      `mapstructure:"ALLOWED_ORIGINS"`
	FrontendURL             string        `mapstructure:"FRONTEND_URL"`
	HTTPServerAddress       string        `mapstructure:"HTTP_SERVER_ADDRESS"`
	TokenSecretKey          string        `mapstructure:"TOKEN_SECRET_KEY"`
	AccessTokenDuration     time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	FirebaseProjectID       string        `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string        `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	LocalStorePath          string        `mapstructure:"LOCAL_STORE_PATH"`
	CloudinaryURL           string        `mapstructure:"CLOUDINARY_URL"`
	RedisServerAddress      string        `mapstructure:"REDIS_SERVER_ADDRESS"`
	GmailSMTPUsername       string        `mapstructure:"GMAIL_SMTP_USERNAME"`
	GmailSMTPPassword       string        `mapstructure:"GMAIL_SMTP_PASSWORD"`

	// Remote write/read timeouts of the local-first repositories.
	RemoteTimeout          time.Duration `mapstructure:"REMOTE_TIMEOUT"`
	UploadTimeout          time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
	FinancialUploadTimeout time.Duration `mapstructure:"FINANCIAL_UPLOAD_TIMEOUT"`
	SyncInterval           time.Duration `mapstructure:"SYNC_INTERVAL"`

	LiveUpdateMode        string        `mapstructure:"LIVE_UPDATE_MODE"`
	LivePollInterval      time.Duration `mapstructure:"LIVE_POLL_INTERVAL"`
	CheckerInterval       time.Duration `mapstructure:"CHECKER_INTERVAL"`
	AlertDedupWindow      time.Duration `mapstructure:"ALERT_DEDUP_WINDOW"`
	NotificationRetention time.Duration `mapstructure:"NOTIFICATION_RETENTION"`
}

// RemoteConfigured reports whether the hosted document database can be used.
// Without it every repository runs in local-only mode.
func (config Config) RemoteConfigured() bool {
	return config.FirebaseProjectID != ""
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	// Set defaults for non-sensitive config
	viper.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("HTTP_SERVER_ADDRESS", "0.0.0.0:8080")
	viper.SetDefault("ACCESS_TOKEN_DURATION", "24h")
	viper.SetDefault("LOCAL_STORE_PATH", "./local.db")
	viper.SetDefault("REMOTE_TIMEOUT", "3s")
	viper.SetDefault("UPLOAD_TIMEOUT", "15s")
	viper.SetDefault("FINANCIAL_UPLOAD_TIMEOUT", "20s")
	viper.SetDefault("SYNC_INTERVAL", "2m")
	viper.SetDefault("LIVE_UPDATE_MODE", LiveUpdateModePush)
	viper.SetDefault("LIVE_POLL_INTERVAL", "15s")
	viper.SetDefault("CHECKER_INTERVAL", "60m")
	viper.SetDefault("ALERT_DEDUP_WINDOW", "24h")
	viper.SetDefault("NOTIFICATION_RETENTION", "720h")

	// Prefer environment variables over config file
	viper.AutomaticEnv()

	// Load config file
	viper.SetConfigFile(path)
	if err = viper.ReadInConfig(); err != nil {
		return
	}

	// Unmarshal config into struct
	err = viper.UnmarshalExact(&config)
	if err != nil {
		return
	}

	// Validate required configuration
	err = validateConfig(config)
	return
}

func validateConfig(config Config) error {
	if config.TokenSecretKey == "" {
		return fmt.Errorf("TOKEN_SECRET_KEY is required")
	}
	if len(config.TokenSecretKey) < 32 {
		return fmt.Errorf("TOKEN_SECRET_KEY must be at least 32 characters")
	}
	if config.FirebaseProjectID != "" && config.FirebaseCredentialsFile == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_FILE is required when FIREBASE_PROJECT_ID is set")
	}
	if config.GmailSMTPUsername != "" && config.GmailSMTPPassword == "" {
		return fmt.Errorf("GMAIL_SMTP_PASSWORD is required when GMAIL_SMTP_USERNAME is set")
	}
	if config.LiveUpdateMode != LiveUpdateModePush && config.LiveUpdateMode != LiveUpdateModePoll {
		return fmt.Errorf("LIVE_UPDATE_MODE must be %q or %q", LiveUpdateModePush, LiveUpdateModePoll)
	}
	if config.RemoteTimeout <= 0 || config.UploadTimeout <= 0 || config.FinancialUploadTimeout <= 0 {
		return fmt.Errorf("remote timeouts must be positive")
	}
	if config.AlertDedupWindow <= 0 {
		return fmt.Errorf("ALERT_DEDUP_WINDOW must be positive")
	}

	return nil
}
