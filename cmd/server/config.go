package main

import (
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type config struct {
	Debug        bool   `env:"DEBUG,default=false"`
	LogSyslog    bool   `env:"LOG_SYSLOG,default=false"`
	Addr         string `env:"ADDR,default=:2137"`
	AllowOrigins string `env:"ALLOW_ORIGINS,default=http://localhost:3000"`

	PostgresDsn string `env:"POSTGRES_DSN,required"`
	DbVerbose   bool   `env:"DB_VERBOSE,default=false"`
	SessionsDb  string `env:"SESSIONS_DB,default=kv.db"`

	Blob  blobConfig
	Kafka kafkaConfig
}

type blobConfig struct {
	// disk or s3
	Backend  string `env:"BLOB_BACKEND,default=disk"`
	DiskRoot string `env:"BLOB_DISK_ROOT,default=./media"`
	BaseURL  string `env:"BLOB_BASE_URL,default=http://localhost:2137/media"`

	S3Region    string `env:"S3_REGION,default=eu-central-1"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessId  string `env:"S3_ACCESS_ID"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3KeyPrefix string `env:"S3_KEY_PREFIX"`
}

type kafkaConfig struct {
	// Semicolon separated. Events are only logged when empty.
	Brokers []string `env:"KAFKA_BROKERS"`
	Topic   string   `env:"KAFKA_TOPIC,default=profile-events"`
}

// loadConfig reads an optional .env file and then decodes the environment.
func loadConfig() (config, error) {
	_ = godotenv.Load()

	var cfg config
	if err := envdecode.Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("decode environment: %w", err)
	}
	switch cfg.Blob.Backend {
	case "disk":
	case "s3":
		if cfg.Blob.S3Bucket == "" {
			return config{}, fmt.Errorf("S3_BUCKET is required for the s3 blob backend")
		}
	default:
		return config{}, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
	return cfg, nil
}
