package factories

import (
	"strconv"

	"github.com/svcbind/svcbind/pkg/binding"
	"github.com/svcbind/svcbind/pkg/compose"
	"github.com/svcbind/svcbind/pkg/details"
)

// postgresImages are the image repositories recognized as PostgreSQL servers.
var postgresImages = []string{"postgres", "postgresql", "pgvector", "timescaledb"}

// PostgresComposeFactory produces Postgres details for compose services
// running a PostgreSQL image. It declines for other images, for services
// labeled to be ignored, and for services that do not publish the server
// port.
func PostgresComposeFactory() binding.TypedFactory {
	return binding.Of(func(s *compose.Service) *details.Postgres {
		if s.Ignored() || !matchesAny(s, postgresImages) {
			return nil
		}
		published := s.PublishedPort(details.DefaultPostgresPort)
		if published == 0 {
			return nil
		}

		username := s.Env("POSTGRES_USER", "POSTGRESQL_USERNAME")
		if username == "" {
			username = "postgres"
		}
		database := s.Env("POSTGRES_DB", "POSTGRESQL_DATABASE")
		if database == "" {
			database = username
		}

		return &details.Postgres{
			Host:     DefaultHost,
			Port:     published,
			Database: database,
			Username: username,
			Password: s.Env("POSTGRES_PASSWORD", "POSTGRESQL_PASSWORD"),
			SSLMode:  "disable",
		}
	})
}

// redisImages are the image repositories recognized as Redis-compatible
// servers.
var redisImages = []string{"redis", "valkey", "redis-stack", "redis-stack-server"}

// RedisComposeFactory produces Redis details for compose services running a
// Redis-compatible image.
func RedisComposeFactory() binding.TypedFactory {
	return binding.Of(func(s *compose.Service) *details.Redis {
		if s.Ignored() || !matchesAny(s, redisImages) {
			return nil
		}
		published := s.PublishedPort(details.DefaultRedisPort)
		if published == 0 {
			return nil
		}

		return &details.Redis{
			Host:     DefaultHost,
			Port:     published,
			Password: s.Env("REDIS_PASSWORD"),
		}
	})
}

// RabbitMQComposeFactory produces RabbitMQ details for compose services
// running a RabbitMQ image.
func RabbitMQComposeFactory() binding.TypedFactory {
	return binding.Of(func(s *compose.Service) *details.RabbitMQ {
		if s.Ignored() || !s.ImageMatches("rabbitmq") {
			return nil
		}
		published := s.PublishedPort(details.DefaultRabbitMQPort)
		if published == 0 {
			return nil
		}

		username := s.Env("RABBITMQ_DEFAULT_USER")
		if username == "" {
			username = "guest"
		}
		password := s.Env("RABBITMQ_DEFAULT_PASS")
		if password == "" {
			password = "guest"
		}

		return &details.RabbitMQ{
			Host:     DefaultHost,
			Port:     published,
			Username: username,
			Password: password,
			VHost:    s.Env("RABBITMQ_DEFAULT_VHOST"),
		}
	})
}

// kafkaImages are the image repositories recognized as Kafka brokers.
var kafkaImages = []string{"kafka", "cp-kafka", "redpanda"}

// KafkaComposeFactory produces Kafka details for compose services running a
// Kafka-compatible broker image.
func KafkaComposeFactory() binding.TypedFactory {
	return binding.Of(func(s *compose.Service) *details.Kafka {
		if s.Ignored() || !matchesAny(s, kafkaImages) {
			return nil
		}
		published := s.PublishedPort(details.DefaultKafkaPort)
		if published == 0 {
			return nil
		}

		return &details.Kafka{
			BootstrapServers: []string{DefaultHost + ":" + strconv.Itoa(published)},
			SecurityProtocol: s.Env("KAFKA_SECURITY_PROTOCOL"),
		}
	})
}

// matchesAny reports whether the service image's repository matches one of
// the given names.
func matchesAny(s *compose.Service, repositories []string) bool {
	for _, repo := range repositories {
		if s.ImageMatches(repo) {
			return true
		}
	}
	return false
}
