package details

import (
	"fmt"
	"net/url"
	"strconv"
)

// DefaultRedisPort is the port assumed when a source does not publish one.
const DefaultRedisPort = 6379

// Redis describes a Redis endpoint.
type Redis struct {
	Host     string
	Port     int
	Username string
	Password string
	Database int
	TLS      bool
}

var _ ConnectionDetails = (*Redis)(nil)

// Kind implements ConnectionDetails.
func (*Redis) Kind() string { return "redis" }

// Addr returns the host:port pair.
func (r *Redis) Addr() string {
	port := r.Port
	if port == 0 {
		port = DefaultRedisPort
	}
	return fmt.Sprintf("%s:%d", r.Host, port)
}

// URL returns a redis:// (or rediss:// when TLS is set) URL form of the
// details.
func (r *Redis) URL() string {
	scheme := "redis"
	if r.TLS {
		scheme = "rediss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   r.Addr(),
	}
	if r.Database != 0 {
		u.Path = "/" + strconv.Itoa(r.Database)
	}
	if r.Username != "" || r.Password != "" {
		if r.Password != "" {
			u.User = url.UserPassword(r.Username, r.Password)
		} else {
			u.User = url.User(r.Username)
		}
	}
	return u.String()
}
