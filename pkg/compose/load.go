package compose

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadOption configures project loading.
type LoadOption func(*loaderConfig) error

// loaderConfig collects loading inputs.
type loaderConfig struct {
	projectName string
}

// WithProjectName overrides the project name instead of deriving it from the
// file's directory.
func WithProjectName(name string) LoadOption {
	return func(cfg *loaderConfig) error {
		if name == "" {
			return fmt.Errorf("project name cannot be empty")
		}
		cfg.projectName = name
		return nil
	}
}

// Load reads and parses a compose file. The path is resolved through
// symlinks before reading to prevent symlink tricks, matching how other
// configuration files are handled.
func Load(path string, opts ...LoadOption) (*Project, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate symlinks: %w", err)
	}

	data, err := os.ReadFile(realPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}

	cfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.projectName == "" {
		cfg.projectName = filepath.Base(filepath.Dir(realPath))
	}

	project, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if project.Name == "" {
		project.Name = cfg.projectName
	}
	return project, nil
}

// Parse parses compose file content. Services keep the order they appear in
// the file.
func Parse(data []byte) (*Project, error) {
	var doc struct {
		Name     string    `yaml:"name"`
		Services yaml.Node `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	project := &Project{Name: doc.Name}

	if doc.Services.Kind == 0 {
		return project, nil
	}
	if doc.Services.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: services must be a mapping", doc.Services.Line)
	}

	// A mapping node stores keys and values as alternating content entries;
	// walking them preserves file order, which plain map decoding would lose.
	content := doc.Services.Content
	for i := 0; i+1 < len(content); i += 2 {
		keyNode, valueNode := content[i], content[i+1]

		var spec serviceSpec
		if err := valueNode.Decode(&spec); err != nil {
			return nil, fmt.Errorf("service %q: %w", keyNode.Value, err)
		}

		service := &Service{
			Name:        keyNode.Value,
			Image:       spec.Image,
			Environment: spec.Environment,
			Labels:      spec.Labels,
		}
		for _, p := range spec.Ports {
			service.Ports = append(service.Ports, PortMapping(p))
		}
		project.Services = append(project.Services, service)
	}

	return project, nil
}

// Service returns the named service, or nil when the project has none.
func (p *Project) Service(name string) *Service {
	for _, s := range p.Services {
		if s.Name == name {
			return s
		}
	}
	return nil
}
