package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  int
	DatabaseURL string
	BcryptCost  int
	CacheTTL    time.Duration
	MQ          MQConfig
}

// MQConfig selects and configures the message broker for account events.
// Backend is "rabbitmq", "pubsub", or empty to disable publishing.
type MQConfig struct {
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL           string
	PrefetchCount int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort:  getEnvInt("SERVER_PORT", 8080),
		DatabaseURL: mustEnv("DATABASE_URL"),
		BcryptCost:  getEnvInt("BCRYPT_COST", 10),
		CacheTTL:    getEnvDuration("CACHE_TTL", 30*time.Second),
		MQ: MQConfig{
			Backend: getEnv("MQ_BACKEND", ""),
			RabbitMQ: RabbitMQConfig{
				URL:           getEnv("RABBITMQ_URL", ""),
				PrefetchCount: getEnvInt("RABBITMQ_PREFETCH", 0),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", ""),
			},
		},
	}
}

// mustEnv retrieves a required environment variable. A missing value is a
// fatal startup error.
func mustEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return value
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(valueStr); err == nil {
			return d
		}
	}
	return defaultValue
}
