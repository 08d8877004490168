// Package factories provides the built-in connection detail factories for
// compose services and connection URL environment variables. Each factory
// matches its technology by image name or URL scheme and declines for
// everything else, so several factories can share a source type and be tried
// through a composite.
package factories

import (
	"github.com/svcbind/svcbind/pkg/binding"
)

// Source is the contract shared by every source family: compose services and
// environment variables both name the service they describe. Factories that
// apply across families register against this interface.
type Source interface {
	ServiceName() string
}

// DefaultHost is the host assumed for ports published by local compose
// services.
const DefaultHost = "localhost"

// All returns the built-in factories in their default priority order.
func All() []any {
	return []any{
		PostgresComposeFactory(),
		RedisComposeFactory(),
		RabbitMQComposeFactory(),
		KafkaComposeFactory(),
		EnvURLFactory(),
		OIDCIssuerFactory(),
	}
}

// NewRegistry builds a binding registry over the built-in factories plus any
// extras. Extras are discovered after the built-ins, so with equal priority
// the built-ins are tried first.
func NewRegistry(extras ...any) (*binding.Registry, error) {
	candidates := All()
	candidates = append(candidates, extras...)
	return binding.New(binding.WithFactories(candidates...))
}
