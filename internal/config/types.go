package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName   string
	Port     string
	Turso    TursoConfig
	API      APIConfig
	Queue    QueueConfig
	Schedule ScheduleConfig
	Shell    ShellConfig
	Slack    SlackConfig
	Log      LogConfig
	// StorageQuotaBytes caps the durable key/value scope.
	StorageQuotaBytes int64
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
type APIConfig struct {
	BaseURL  string
	Timeout  time.Duration
	GameYear int
}
type QueueConfig struct {
	AuthRedirectDelay time.Duration
	RetryInterval     time.Duration
	MaxRejections     int
}
type ScheduleConfig struct {
	Debounce time.Duration
}
type ShellConfig struct {
	ManifestPath string
	Dir          string
}
type SlackConfig struct {
	WebhookURL string
	BotToken   string
	ChannelID  string
}
type LogConfig struct {
	Level  string
	Format string
	File   string
}
