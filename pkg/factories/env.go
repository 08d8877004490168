package factories

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/svcbind/svcbind/pkg/binding"
	"github.com/svcbind/svcbind/pkg/details"
	"github.com/svcbind/svcbind/pkg/envsource"
)

// EnvURLFactory produces connection details from a connection URL environment
// variable, keyed by URL scheme. It declines for variables whose value is not
// a URL or whose scheme names no supported technology.
func EnvURLFactory() binding.TypedFactory {
	return binding.Of(func(v *envsource.Var) details.ConnectionDetails {
		u, err := v.URL()
		if err != nil {
			return nil
		}

		switch u.Scheme {
		case "postgres", "postgresql":
			return postgresFromURL(u)
		case "redis", "rediss":
			return redisFromURL(u)
		case "amqp", "amqps":
			return rabbitmqFromURL(u)
		case "kafka":
			return kafkaFromURL(u)
		default:
			return nil
		}
	})
}

// OIDCIssuerFactory produces OIDC details from issuer URL variables such as
// OIDC_ISSUER_URL. It declines for every other variable.
func OIDCIssuerFactory() binding.TypedFactory {
	return binding.Of(func(v *envsource.Var) *details.OIDC {
		if !strings.HasSuffix(v.Key, "_ISSUER_URL") {
			return nil
		}
		u, err := v.URL()
		if err != nil {
			return nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil
		}

		return &details.OIDC{Issuer: v.Value}
	})
}

func postgresFromURL(u *url.URL) *details.Postgres {
	password, _ := u.User.Password()
	p := &details.Postgres{
		Host:     u.Hostname(),
		Port:     portOf(u, details.DefaultPostgresPort),
		Database: strings.TrimPrefix(u.Path, "/"),
		Username: u.User.Username(),
		Password: password,
		SSLMode:  u.Query().Get("sslmode"),
	}
	return p
}

func redisFromURL(u *url.URL) *details.Redis {
	password, _ := u.User.Password()
	database := 0
	if path := strings.TrimPrefix(u.Path, "/"); path != "" {
		if n, err := strconv.Atoi(path); err == nil {
			database = n
		}
	}
	return &details.Redis{
		Host:     u.Hostname(),
		Port:     portOf(u, details.DefaultRedisPort),
		Username: u.User.Username(),
		Password: password,
		Database: database,
		TLS:      u.Scheme == "rediss",
	}
}

func rabbitmqFromURL(u *url.URL) *details.RabbitMQ {
	password, _ := u.User.Password()
	return &details.RabbitMQ{
		Host:     u.Hostname(),
		Port:     portOf(u, details.DefaultRabbitMQPort),
		Username: u.User.Username(),
		Password: password,
		VHost:    strings.TrimPrefix(u.Path, "/"),
	}
}

func kafkaFromURL(u *url.URL) *details.Kafka {
	// kafka://host:port,host:port supports multi-broker values; url.Parse
	// keeps the full list in the host component.
	brokers := strings.Split(u.Host, ",")
	for i, b := range brokers {
		if !strings.Contains(b, ":") {
			brokers[i] = b + ":" + strconv.Itoa(details.DefaultKafkaPort)
		}
	}
	return &details.Kafka{BootstrapServers: brokers}
}

// portOf returns the URL's port, or the technology default when none is set.
func portOf(u *url.URL, fallback int) int {
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			return n
		}
	}
	return fallback
}
