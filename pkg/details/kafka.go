package details

import (
	"strings"
)

// DefaultKafkaPort is the broker port assumed when a source does not publish
// one.
const DefaultKafkaPort = 9092

// Kafka describes a Kafka cluster.
type Kafka struct {
	// BootstrapServers lists the initial broker addresses as host:port pairs.
	BootstrapServers []string

	// SecurityProtocol is the broker listener protocol, e.g. "PLAINTEXT" or
	// "SASL_SSL". Empty means PLAINTEXT.
	SecurityProtocol string

	Username string
	Password string
}

var _ ConnectionDetails = (*Kafka)(nil)

// Kind implements ConnectionDetails.
func (*Kafka) Kind() string { return "kafka" }

// Brokers returns the bootstrap servers as a comma-separated list, the form
// most Kafka clients accept.
func (k *Kafka) Brokers() string {
	return strings.Join(k.BootstrapServers, ",")
}
