// Package details defines the typed connection detail values that binding
// factories produce. Each type carries exactly what a client library needs to
// connect to one technology; none of them perform I/O.
package details

// ConnectionDetails is the marker contract implemented by every resolved
// connection detail value.
type ConnectionDetails interface {
	// Kind returns the technology identifier, e.g. "postgres" or "redis".
	Kind() string
}
