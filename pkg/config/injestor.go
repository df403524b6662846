package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// InjestorConfig holds all configuration for the injestor binary.
type InjestorConfig struct {
	LogLevel string
	HTTPAddr string

	KafkaBootstrapServers string
	KafkaTopic            string
	KafkaTopicPrefix      string
	KafkaSecurityProtocol string
	KafkaSASLMechanism    string
	KafkaSASLUsername     string
	KafkaSASLPassword     string
	KafkaGroupID          string

	PollIntervalMS int

	CouchbaseConnectionString string
	CouchbaseBucket           string
	CouchbaseUsername         string
	CouchbasePassword         string
	CouchbaseScope            string
	CouchbaseCollection       string
	CouchbaseCollectionPrefix string

	Environment string
}

// LoadInjestorConfig loads injestor configuration from environment variables.
func LoadInjestorConfig() (*InjestorConfig, error) {
	cfg := &InjestorConfig{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPAddr: getEnvOrDefault("HTTP_ADDR", ":8080"),

		KafkaBootstrapServers: os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		KafkaTopic:            os.Getenv("KAFKA_TOPIC"),
		KafkaTopicPrefix:      getEnvOrDefault("KAFKA_TOPIC_PREFIX", ""),
		KafkaSecurityProtocol: getEnvOrDefault("KAFKA_SECURITY_PROTOCOL", "PLAINTEXT"),
		KafkaSASLMechanism:    os.Getenv("KAFKA_SASL_MECHANISM"),
		KafkaSASLUsername:     os.Getenv("KAFKA_SASL_USERNAME"),
		KafkaSASLPassword:     os.Getenv("KAFKA_SASL_PASSWORD"),
		KafkaGroupID:          getEnvOrDefault("KAFKA_GROUP_ID", "strategy-injestor"),

		PollIntervalMS: getIntOrDefault("POLL_INTERVAL_MS", 1000),

		CouchbaseConnectionString: os.Getenv("COUCHBASE_CONNECTION_STRING"),
		CouchbaseBucket:           os.Getenv("COUCHBASE_BUCKET"),
		CouchbaseUsername:         os.Getenv("COUCHBASE_USERNAME"),
		CouchbasePassword:         os.Getenv("COUCHBASE_PASSWORD"),
		CouchbaseScope:            getEnvOrDefault("COUCHBASE_SCOPE", ""),
		CouchbaseCollection:       getEnvOrDefault("COUCHBASE_COLLECTION", "_default"),
		CouchbaseCollectionPrefix: getEnvOrDefault("COUCHBASE_COLLECTION_PREFIX", ""),

		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate injestor config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are present and sane.
func (c *InjestorConfig) Validate() error {
	if c.KafkaBootstrapServers == "" {
		return errors.New("KAFKA_BOOTSTRAP_SERVERS is required")
	}
	if c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}
	if c.CouchbaseConnectionString == "" {
		return errors.New("COUCHBASE_CONNECTION_STRING is required")
	}
	if c.CouchbaseBucket == "" {
		return errors.New("COUCHBASE_BUCKET is required")
	}
	if c.CouchbaseUsername == "" {
		return errors.New("COUCHBASE_USERNAME is required")
	}
	if c.CouchbasePassword == "" {
		return errors.New("COUCHBASE_PASSWORD is required")
	}
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must be positive, got %d", c.PollIntervalMS)
	}

	return nil
}

// PollInterval returns the consumer poll timeout as a time.Duration.
func (c *InjestorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
