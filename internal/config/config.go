package config

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultAPIBaseURL = "https://gearitforward.com/api"
	DefaultGameYear   = 2026
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	cfg, err := fromViper(newViper())
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_NAME", "gearscout.db")
	v.SetDefault("GEARSCOUT_API_BASE_URL", DefaultAPIBaseURL)
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("GAME_YEAR", DefaultGameYear)
	v.SetDefault("STORAGE_QUOTA_BYTES", 5*1024*1024)
	v.SetDefault("SCHEDULE_DEBOUNCE", "500ms")
	v.SetDefault("AUTH_REDIRECT_DELAY", "2s")
	v.SetDefault("RETRY_INTERVAL", "0s")
	v.SetDefault("MAX_REJECTIONS", 3)
	v.SetDefault("SHELL_MANIFEST", "./web/manifest.yaml")
	v.SetDefault("SHELL_DIR", "./web/dist")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	return v
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		DBName: v.GetString("DB_NAME"),
		Port:   v.GetString("PORT"),
		Turso: TursoConfig{
			PrimaryURL: v.GetString("TURSO_PRIMARY_URL"),
			AuthToken:  v.GetString("TURSO_AUTH_TOKEN"),
		},
		API: APIConfig{
			BaseURL:  v.GetString("GEARSCOUT_API_BASE_URL"),
			Timeout:  v.GetDuration("API_TIMEOUT"),
			GameYear: v.GetInt("GAME_YEAR"),
		},
		Queue: QueueConfig{
			AuthRedirectDelay: v.GetDuration("AUTH_REDIRECT_DELAY"),
			RetryInterval:     v.GetDuration("RETRY_INTERVAL"),
			MaxRejections:     v.GetInt("MAX_REJECTIONS"),
		},
		Schedule: ScheduleConfig{
			Debounce: v.GetDuration("SCHEDULE_DEBOUNCE"),
		},
		Shell: ShellConfig{
			ManifestPath: v.GetString("SHELL_MANIFEST"),
			Dir:          v.GetString("SHELL_DIR"),
		},
		Slack: SlackConfig{
			WebhookURL: v.GetString("SLACK_WEBHOOK_URL"),
			BotToken:   v.GetString("SLACK_BOT_TOKEN"),
			ChannelID:  v.GetString("SLACK_CHANNEL_ID"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			File:   v.GetString("LOG_FILE"),
		},
		StorageQuotaBytes: v.GetInt64("STORAGE_QUOTA_BYTES"),
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the rest of the application cannot work with.
func (c Config) Validate() error {
	if c.DBName == "" {
		return fmt.Errorf("DB_NAME must not be empty")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("GEARSCOUT_API_BASE_URL must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.API.Timeout)
	}
	if c.Schedule.Debounce <= 0 {
		return fmt.Errorf("SCHEDULE_DEBOUNCE must be positive, got %s", c.Schedule.Debounce)
	}
	if c.Queue.AuthRedirectDelay < 0 || c.Queue.RetryInterval < 0 {
		return fmt.Errorf("queue durations must not be negative")
	}
	if c.Queue.MaxRejections < 1 {
		return fmt.Errorf("MAX_REJECTIONS must be at least 1, got %d", c.Queue.MaxRejections)
	}
	if c.StorageQuotaBytes <= 0 {
		return fmt.Errorf("STORAGE_QUOTA_BYTES must be positive, got %d", c.StorageQuotaBytes)
	}
	return nil
}
