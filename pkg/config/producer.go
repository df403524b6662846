package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ProducerConfig holds all configuration for the producer binary.
type ProducerConfig struct {
	// Application
	LogLevel string
	HTTPAddr string

	// Polymarket Gamma API
	PolymarketBaseURL          string
	PolymarketRequestTimeout   time.Duration
	PolymarketRateLimitDelay   time.Duration
	PolymarketMaxRetries       int
	PolymarketMaxPaginationCap int

	// Polling
	PollInterval time.Duration

	// Kafka (producer side)
	KafkaBootstrapServers string
	KafkaTopic            string
	KafkaTopicPrefix      string
	KafkaSecurityProtocol string
	KafkaSASLMechanism    string
	KafkaSASLUsername     string
	KafkaSASLPassword     string
	KafkaClientID         string

	// MongoDB (subscription store)
	MongoURI              string
	MongoDatabase         string
	MongoCollection       string
	MongoCollectionPrefix string

	Environment string
}

// LoadProducerConfig loads producer configuration from environment variables.
func LoadProducerConfig() (*ProducerConfig, error) {
	cfg := &ProducerConfig{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPAddr: getEnvOrDefault("HTTP_ADDR", ":8080"),

		PolymarketBaseURL:          getEnvOrDefault("POLYMARKET_BASE_URL", "https://gamma-api.polymarket.com"),
		PolymarketRequestTimeout:   getDurationSecondsOrDefault("POLYMARKET_REQUEST_TIMEOUT_SECONDS", 30*time.Second),
		PolymarketRateLimitDelay:   getDurationMillisOrDefault("POLYMARKET_RATE_LIMIT_DELAY_MS", 200*time.Millisecond),
		PolymarketMaxRetries:       getIntOrDefault("POLYMARKET_MAX_RETRIES", 3),
		PolymarketMaxPaginationCap: getIntOrDefault("POLYMARKET_MAX_PAGINATION_OFFSET", 10000),

		PollInterval: getDurationSecondsOrDefault("POLL_INTERVAL_SECONDS", 30*time.Second),

		KafkaBootstrapServers: os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		KafkaTopic:            os.Getenv("KAFKA_TOPIC"),
		KafkaTopicPrefix:      getEnvOrDefault("KAFKA_TOPIC_PREFIX", ""),
		KafkaSecurityProtocol: getEnvOrDefault("KAFKA_SECURITY_PROTOCOL", "PLAINTEXT"),
		KafkaSASLMechanism:    os.Getenv("KAFKA_SASL_MECHANISM"),
		KafkaSASLUsername:     os.Getenv("KAFKA_SASL_USERNAME"),
		KafkaSASLPassword:     os.Getenv("KAFKA_SASL_PASSWORD"),
		KafkaClientID:         getEnvOrDefault("KAFKA_CLIENT_ID", "polymarket-kafka"),

		MongoURI:              os.Getenv("MONGODB_URI"),
		MongoDatabase:         os.Getenv("MONGODB_DATABASE"),
		MongoCollection:       getEnvOrDefault("MONGODB_COLLECTION", "polymarket_subscriptions"),
		MongoCollectionPrefix: getEnvOrDefault("MONGODB_COLLECTION_PREFIX", ""),

		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate producer config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are present and sane.
func (c *ProducerConfig) Validate() error {
	if c.KafkaBootstrapServers == "" {
		return errors.New("KAFKA_BOOTSTRAP_SERVERS is required")
	}
	if c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}
	if c.MongoURI == "" {
		return errors.New("MONGODB_URI is required")
	}
	if c.MongoDatabase == "" {
		return errors.New("MONGODB_DATABASE is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive, got %s", c.PollInterval)
	}
	if c.PolymarketRateLimitDelay < 0 {
		return fmt.Errorf("POLYMARKET_RATE_LIMIT_DELAY_MS must be non-negative, got %s", c.PolymarketRateLimitDelay)
	}
	if c.PolymarketMaxRetries < 0 {
		return fmt.Errorf("POLYMARKET_MAX_RETRIES must be non-negative, got %d", c.PolymarketMaxRetries)
	}
	if c.PolymarketMaxPaginationCap <= 0 {
		return fmt.Errorf("POLYMARKET_MAX_PAGINATION_OFFSET must be positive, got %d", c.PolymarketMaxPaginationCap)
	}

	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationSecondsOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Second
}

func getDurationMillisOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Millisecond
}

