package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// Workers sizes the background cleanup pool.
	Workers int `env:"BACKGROUND_WORKERS, default=4"`

	Token    TokenConfig
	Code     CodeConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	SendGrid SendGridConfig
	Storage  StorageConfig
}

type TokenConfig struct {
	Secret string        `env:"JWT_SECRET"`
	Issuer string        `env:"JWT_ISSUER, default=identity.habitkit.app"`
	TTL    time.Duration `env:"JWT_TTL,    default=720h"`
}

type CodeConfig struct {
	TTL time.Duration `env:"OTP_TTL, default=10m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SendGridConfig struct {
	APIKey     string `env:"SENDGRID_API_KEY"`
	From       string `env:"SENDGRID_FROM,        default=no-reply@habitkit.app"`
	FromName   string `env:"SENDGRID_FROM_NAME,   default=Habitkit"`
	TemplateID string `env:"SENDGRID_OTP_TEMPLATE"`
}

type StorageConfig struct {
	Bucket   string `env:"MEDIA_BUCKET, default=habitkit-media"`
	Region   string `env:"MEDIA_REGION, default=us-east-1"`
	Endpoint string `env:"MEDIA_ENDPOINT"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
