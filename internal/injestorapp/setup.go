package injestorapp

import (
	"strings"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/eventconsumer"
	"github.com/alexalk/polymarket-conviction-pipeline/internal/projector"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/config"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/healthprobe"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/httpserver"
	"go.uber.org/zap"
)

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupConsumer(cfg *config.InjestorConfig, logger *zap.Logger) (*eventconsumer.Consumer, error) {
	return eventconsumer.New(eventconsumer.Config{
		Brokers:          strings.Split(cfg.KafkaBootstrapServers, ","),
		Topic:            cfg.KafkaTopic,
		TopicPrefix:      cfg.KafkaTopicPrefix,
		GroupID:          cfg.KafkaGroupID,
		SecurityProtocol: cfg.KafkaSecurityProtocol,
		SASLMechanism:    cfg.KafkaSASLMechanism,
		SASLUsername:     cfg.KafkaSASLUsername,
		SASLPassword:     cfg.KafkaSASLPassword,
		Logger:           logger,
	})
}

func setupProjector(cfg *config.InjestorConfig, logger *zap.Logger) (*projector.Projector, error) {
	return projector.New(projector.Config{
		ConnectionString: cfg.CouchbaseConnectionString,
		Username:         cfg.CouchbaseUsername,
		Password:         cfg.CouchbasePassword,
		Bucket:           cfg.CouchbaseBucket,
		Scope:            cfg.CouchbaseScope,
		CollectionPrefix: cfg.CouchbaseCollectionPrefix,
		Collection:       cfg.CouchbaseCollection,
		Logger:           logger,
	})
}

func setupHTTPServer(cfg *config.InjestorConfig, logger *zap.Logger, healthChecker *healthprobe.HealthChecker) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Addr:          cfg.HTTPAddr,
		Logger:        logger,
		HealthChecker: healthChecker,
	})
}
