// Package compose models the subset of a Docker Compose file that connection
// detail resolution needs: service names, images, environment and published
// ports. Parsed services are the primary source objects handed to the binding
// registry.
package compose

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// IgnoreLabel marks a service that resolution should skip entirely.
const IgnoreLabel = "svcbind.ignore"

// Project is one parsed compose file.
type Project struct {
	// Name is the compose project name, or the file's top-level name field.
	Name string

	// Services are the project's services in file order.
	Services []*Service
}

// Service is one service entry in a compose file.
type Service struct {
	// Name is the service key in the compose file.
	Name string

	// Image is the full image reference as written.
	Image string

	// Environment holds the service environment, normalized to a map
	// regardless of whether the file used map or list form.
	Environment map[string]string

	// Ports are the service's published port mappings.
	Ports []PortMapping

	// Labels holds the service labels, normalized to a map.
	Labels map[string]string
}

// PortMapping is one published port.
type PortMapping struct {
	// Published is the host-side port. Zero means the runtime assigns one.
	Published int

	// Target is the container-side port.
	Target int

	// Protocol is tcp or udp; empty means tcp.
	Protocol string
}

// ServiceName returns the service's compose key. It satisfies the source
// contract shared with other source families.
func (s *Service) ServiceName() string {
	return s.Name
}

// ImageName returns the image repository path without registry host, tag or
// digest. "docker.io/library/postgres:16-alpine" and "postgres@sha256:..."
// both yield "library/postgres" and "postgres" respectively.
func (s *Service) ImageName() string {
	name := s.Image

	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	// A colon after the last slash is a tag separator, not a registry port.
	if i := strings.LastIndexByte(name, ':'); i > strings.LastIndexByte(name, '/') {
		name = name[:i]
	}
	// A first segment containing a dot or colon is a registry host.
	if i := strings.IndexByte(name, '/'); i >= 0 {
		first := name[:i]
		if strings.ContainsAny(first, ".:") || first == "localhost" {
			name = name[i+1:]
		}
	}

	return name
}

// ImageTag returns the image tag as written, or the empty string for
// untagged and digest-pinned references.
func (s *Service) ImageTag() string {
	name := s.Image
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, ':'); i > strings.LastIndexByte(name, '/') {
		return name[i+1:]
	}
	return ""
}

// ImageMatches reports whether the final path segment of the service's image
// equals the given repository name, e.g. ImageMatches("postgres") is true for
// "bitnami/postgres:16".
func (s *Service) ImageMatches(repository string) bool {
	name := s.ImageName()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name == repository
}

// Env returns the value of the first environment key that is set, or the
// empty string when none are.
func (s *Service) Env(keys ...string) string {
	for _, key := range keys {
		if v, ok := s.Environment[key]; ok {
			return v
		}
	}
	return ""
}

// PublishedPort returns the host port mapped to the given container port, or
// zero when the port is not published.
func (s *Service) PublishedPort(target int) int {
	for _, p := range s.Ports {
		if p.Target == target && (p.Protocol == "" || p.Protocol == "tcp") {
			return p.Published
		}
	}
	return 0
}

// Ignored reports whether the service is labeled to be skipped by resolution.
func (s *Service) Ignored() bool {
	v, ok := s.Labels[IgnoreLabel]
	if !ok {
		return false
	}
	ignored, err := strconv.ParseBool(v)
	return err == nil && ignored
}

// serviceSpec is the YAML shape of a single service entry.
type serviceSpec struct {
	Image       string     `yaml:"image"`
	Environment stringMap  `yaml:"environment"`
	Labels      stringMap  `yaml:"labels"`
	Ports       []portSpec `yaml:"ports"`
}

// stringMap accepts both the map form and the KEY=value list form compose
// allows for environment and labels.
type stringMap map[string]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *stringMap) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		raw := map[string]string{}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*m = raw
		return nil
	case yaml.SequenceNode:
		var entries []string
		if err := node.Decode(&entries); err != nil {
			return err
		}
		out := make(map[string]string, len(entries))
		for _, entry := range entries {
			key, value, _ := strings.Cut(entry, "=")
			out[key] = value
		}
		*m = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a mapping or sequence", node.Line)
	}
}

// portSpec accepts both the short string syntax ("8080:5432", "5432",
// "127.0.0.1:8080:5432", with an optional "/udp" suffix) and the long form
// with published/target fields.
type portSpec struct {
	Published int    `yaml:"published"`
	Target    int    `yaml:"target"`
	Protocol  string `yaml:"protocol"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *portSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		type plain portSpec
		return node.Decode((*plain)(p))
	}

	var short string
	if err := node.Decode(&short); err != nil {
		return err
	}
	return p.parseShort(short, node.Line)
}

func (p *portSpec) parseShort(s string, line int) error {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		p.Protocol = s[i+1:]
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	var published, target string
	switch len(parts) {
	case 1:
		target = parts[0]
	case 2:
		published, target = parts[0], parts[1]
	case 3:
		// host IP, published, target
		published, target = parts[1], parts[2]
	default:
		return fmt.Errorf("line %d: invalid port mapping %q", line, s)
	}

	var err error
	if p.Target, err = parsePort(target); err != nil {
		return fmt.Errorf("line %d: invalid target port in %q: %w", line, s, err)
	}
	if published != "" {
		// Published may be a range start; resolution only supports single ports.
		if p.Published, err = parsePort(published); err != nil {
			return fmt.Errorf("line %d: invalid published port in %q: %w", line, s, err)
		}
	}
	return nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}
