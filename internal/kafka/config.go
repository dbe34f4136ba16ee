package kafka

import (
	"fmt"
	"os"
	"strings"
)

// Config holds Kafka connection settings shared by producers and consumers.
type Config struct {
	Brokers           string
	EmailEventsTopic  string
	EmailDLQTopic     string
	ConsumerGroup     string
	EnableIdempotence bool
	Acks              string
}

// LoadConfig loads Kafka configuration from environment variables.
func LoadConfig() (*Config, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	return &Config{
		Brokers:           brokers,
		EmailEventsTopic:  getEnv("KAFKA_TOPIC_EMAIL_EVENTS", "email-events"),
		EmailDLQTopic:     getEnv("KAFKA_TOPIC_EMAIL_DLQ", "email-events-dlq"),
		ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "email-service-group"),
		EnableIdempotence: true,
		Acks:              "all",
	}, nil
}

// BrokerList returns the brokers as a slice.
func (c *Config) BrokerList() []string {
	return strings.Split(c.Brokers, ",")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
