package details

import (
	"fmt"
	"net/url"
)

// DefaultRabbitMQPort is the AMQP port assumed when a source does not publish
// one.
const DefaultRabbitMQPort = 5672

// RabbitMQ describes a RabbitMQ broker endpoint.
type RabbitMQ struct {
	Host     string
	Port     int
	Username string
	Password string
	VHost    string
}

var _ ConnectionDetails = (*RabbitMQ)(nil)

// Kind implements ConnectionDetails.
func (*RabbitMQ) Kind() string { return "rabbitmq" }

// Addr returns the host:port pair.
func (r *RabbitMQ) Addr() string {
	port := r.Port
	if port == 0 {
		port = DefaultRabbitMQPort
	}
	return fmt.Sprintf("%s:%d", r.Host, port)
}

// URL returns an amqp:// URL form of the details.
func (r *RabbitMQ) URL() string {
	u := url.URL{
		Scheme: "amqp",
		Host:   r.Addr(),
	}
	if r.Username != "" {
		if r.Password != "" {
			u.User = url.UserPassword(r.Username, r.Password)
		} else {
			u.User = url.User(r.Username)
		}
	}
	if r.VHost != "" && r.VHost != "/" {
		u.Path = "/" + r.VHost
	}
	return u.String()
}
