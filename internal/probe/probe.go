// Package probe checks that resolved connection details point at reachable
// endpoints. Probing is plain TCP dialing with bounded retries; it proves a
// listener is present, not that credentials are valid.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/svcbind/svcbind/pkg/details"
)

const (
	defaultTimeout     = 5 * time.Second
	defaultMaxAttempts = 3
	initialInterval    = 100 * time.Millisecond
)

// Endpoint is one address extracted from resolved connection details.
type Endpoint struct {
	// Service is the source service the details were resolved for.
	Service string `json:"service"`

	// Kind is the technology identifier of the details.
	Kind string `json:"kind"`

	// Addr is the host:port to dial.
	Addr string `json:"addr"`
}

// Result is the outcome of probing one endpoint.
type Result struct {
	Endpoint

	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`

	// Duration is the total time spent on this endpoint across attempts.
	Duration time.Duration `json:"duration"`
}

// Report collects the results of one probe run.
type Report struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	StartedAt time.Time `json:"started_at"`
	Results   []Result  `json:"results"`
}

// Reachable reports whether every probed endpoint was reachable.
func (r *Report) Reachable() bool {
	for _, result := range r.Results {
		if !result.Reachable {
			return false
		}
	}
	return true
}

// Option configures a prober.
type Option func(*Prober) error

// WithTimeout sets the per-attempt dial timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		p.timeout = d
		return nil
	}
}

// WithMaxAttempts sets the number of dial attempts per endpoint.
func WithMaxAttempts(n int) Option {
	return func(p *Prober) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be positive")
		}
		p.maxAttempts = n
		return nil
	}
}

// WithLogger sets the logger used for per-endpoint progress.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}

// Prober dials endpoints with bounded retries.
type Prober struct {
	timeout     time.Duration
	maxAttempts int
	logger      *slog.Logger

	// dial is swappable for tests.
	dial func(ctx context.Context, addr string) error
}

// New creates a prober.
func New(opts ...Option) (*Prober, error) {
	p := &Prober{
		timeout:     defaultTimeout,
		maxAttempts: defaultMaxAttempts,
		logger:      slog.Default(),
	}
	p.dial = p.dialTCP

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Probe dials every endpoint and returns a report. Endpoints are probed in
// order; a failure does not stop the run.
func (p *Prober) Probe(ctx context.Context, endpoints []Endpoint) *Report {
	report := &Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	for _, endpoint := range endpoints {
		start := time.Now()
		err := p.probeOne(ctx, endpoint)

		result := Result{
			Endpoint:  endpoint,
			Reachable: err == nil,
			Duration:  time.Since(start),
		}
		if err != nil {
			result.Error = err.Error()
			p.logger.Warn("endpoint unreachable",
				"service", endpoint.Service, "addr", endpoint.Addr, "error", err)
		} else {
			p.logger.Debug("endpoint reachable",
				"service", endpoint.Service, "addr", endpoint.Addr)
		}
		report.Results = append(report.Results, result)
	}

	return report
}

// probeOne dials a single endpoint with retries.
func (p *Prober) probeOne(ctx context.Context, endpoint Endpoint) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initialInterval

	operation := func() (struct{}, error) {
		return struct{}{}, p.dial(ctx, endpoint.Addr)
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(p.maxAttempts)),
	)
	return err
}

// dialTCP is the production dial function.
func (p *Prober) dialTCP(ctx context.Context, addr string) error {
	dialer := &net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Endpoints extracts the dialable addresses from resolved connection details.
// Details without a network address (or with unparseable ones) yield nothing.
func Endpoints(service string, d details.ConnectionDetails) []Endpoint {
	switch v := d.(type) {
	case *details.Postgres:
		return []Endpoint{{Service: service, Kind: v.Kind(), Addr: v.Addr()}}
	case *details.Redis:
		return []Endpoint{{Service: service, Kind: v.Kind(), Addr: v.Addr()}}
	case *details.RabbitMQ:
		return []Endpoint{{Service: service, Kind: v.Kind(), Addr: v.Addr()}}
	case *details.Kafka:
		endpoints := make([]Endpoint, 0, len(v.BootstrapServers))
		for _, broker := range v.BootstrapServers {
			endpoints = append(endpoints, Endpoint{Service: service, Kind: v.Kind(), Addr: broker})
		}
		return endpoints
	case *details.OIDC:
		u, err := url.Parse(v.Issuer)
		if err != nil || u.Host == "" {
			return nil
		}
		addr := u.Host
		if u.Port() == "" {
			switch u.Scheme {
			case "http":
				addr += ":80"
			case "https":
				addr += ":443"
			default:
				return nil
			}
		}
		return []Endpoint{{Service: service, Kind: v.Kind(), Addr: addr}}
	default:
		return nil
	}
}
