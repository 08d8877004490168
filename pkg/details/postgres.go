package details

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const (
	// DefaultPostgresPort is the port assumed when a source does not publish one.
	DefaultPostgresPort = 5432

	// DefaultPostgresSSLMode is used when the source does not state an SSL mode.
	DefaultPostgresSSLMode = "prefer"
)

// Postgres describes a PostgreSQL endpoint.
type Postgres struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// Options holds additional connection parameters appended to the DSN.
	Options map[string]string
}

var _ ConnectionDetails = (*Postgres)(nil)

// Kind implements ConnectionDetails.
func (*Postgres) Kind() string { return "postgres" }

// Addr returns the host:port pair.
func (p *Postgres) Addr() string {
	port := p.Port
	if port == 0 {
		port = DefaultPostgresPort
	}
	return fmt.Sprintf("%s:%d", p.Host, port)
}

// DSN returns a keyword/value connection string accepted by libpq-compatible
// drivers.
func (p *Postgres) DSN() string {
	port := p.Port
	if port == 0 {
		port = DefaultPostgresPort
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = DefaultPostgresSSLMode
	}

	parts := []string{
		fmt.Sprintf("host=%s", p.Host),
		fmt.Sprintf("port=%d", port),
	}
	if p.Database != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", p.Database))
	}
	if p.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", p.Username))
	}
	if p.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", p.Password))
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", sslMode))

	for _, k := range sortedKeys(p.Options) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, p.Options[k]))
	}

	return strings.Join(parts, " ")
}

// URL returns a postgres:// URL form of the details.
func (p *Postgres) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   p.Addr(),
		Path:   "/" + p.Database,
	}
	if p.Username != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.Username, p.Password)
		} else {
			u.User = url.User(p.Username)
		}
	}
	q := u.Query()
	if p.SSLMode != "" {
		q.Set("sslmode", p.SSLMode)
	}
	for k, v := range p.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// sortedKeys returns the map keys in lexical order so derived strings are
// deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
