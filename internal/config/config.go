package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	NATSSubjectBase        string
	JWTSecret              string
	RazorpayKeyID          string
	RazorpayKeySecret      string
	ApplicationFee         int64
	JobCacheTTL            time.Duration
	OutboxInterval         time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	MailerURL              string
	MailerAPIKey           string
	MailerFrom             string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("JOBSETU")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "JobSetu API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject_base", "jobsetu")
	v.SetDefault("application.fee", 4900)
	v.SetDefault("job.cache_ttl", "5m")
	v.SetDefault("outbox.interval", "5s")
	v.SetDefault("cloudinary.folder", "jobsetu/captures")
	v.SetDefault("mailer.from", "no-reply@jobsetu.in")

	cacheTTL, err := time.ParseDuration(v.GetString("job.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid job cache ttl: %w", err)
	}

	outboxInterval, err := time.ParseDuration(v.GetString("outbox.interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid outbox interval: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubjectBase:        v.GetString("nats.subject_base"),
		JWTSecret:              v.GetString("jwt.secret"),
		RazorpayKeyID:          v.GetString("razorpay.key_id"),
		RazorpayKeySecret:      v.GetString("razorpay.key_secret"),
		ApplicationFee:         v.GetInt64("application.fee"),
		JobCacheTTL:            cacheTTL,
		OutboxInterval:         outboxInterval,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		MailerURL:              v.GetString("mailer.url"),
		MailerAPIKey:           v.GetString("mailer.api_key"),
		MailerFrom:             v.GetString("mailer.from"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ApplicationFee <= 0 {
		cfg.ApplicationFee = 4900
	}

	return cfg, nil
}
