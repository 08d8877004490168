package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/svcbind/svcbind/internal/config"
	"github.com/svcbind/svcbind/internal/telemetry"
	"github.com/svcbind/svcbind/internal/versions"
	"github.com/svcbind/svcbind/pkg/compose"
	"github.com/svcbind/svcbind/pkg/details"
	"github.com/svcbind/svcbind/pkg/envsource"
	"github.com/svcbind/svcbind/pkg/factories"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve connection details for the project's services",
	Long: `Resolve connection details from the compose file's services and from
connection URL environment variables (DATABASE_URL, REDIS_URL, ...), and print
them as a JSON report on stdout.`,
	RunE: runResolve,
}

func init() {
	addSourceFlags(resolveCmd, "resolve")
}

// addSourceFlags registers the flags shared by every command that resolves
// connection details. Viper keys are prefixed per command so the commands do
// not clobber each other's bindings.
func addSourceFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	cmd.Flags().String("compose-file", "", "Path to the compose file (overrides config)")
	cmd.Flags().String("project", "", "Project name used in the report (overrides config)")
	cmd.Flags().Bool("no-env", false, "Skip connection URL environment variables")
	cmd.Flags().String("otlp-endpoint", "", "OTLP endpoint for resolution metrics (empty disables export)")
	cmd.Flags().Bool("otlp-insecure", false, "Disable TLS for the OTLP endpoint")

	for _, name := range []string{"config", "compose-file", "project", "no-env", "otlp-endpoint", "otlp-insecure"} {
		if err := viper.BindPFlag(prefix+"."+name, cmd.Flags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
			os.Exit(1)
		}
	}
}

// loadCommandConfig loads the configuration file named by the command's
// --config flag, or the defaults when the flag is unset.
func loadCommandConfig(prefix string) (*config.Config, error) {
	path := viper.GetString(prefix + ".config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newResolver builds the detail resolver over the built-in factories, with
// resolution metrics exported when an OTLP endpoint is configured.
func newResolver(ctx context.Context, prefix string) (*telemetry.Resolver, func(), error) {
	mp, err := telemetry.NewMeterProvider(ctx,
		telemetry.WithServiceVersion(versions.Get().Version),
		telemetry.WithEndpoint(viper.GetString(prefix+".otlp-endpoint")),
		telemetry.WithInsecure(viper.GetBool(prefix+".otlp-insecure")),
	)
	if err != nil {
		return nil, nil, err
	}
	shutdown := func() {
		if sdk, ok := mp.(*sdkmetric.MeterProvider); ok {
			if err := sdk.Shutdown(context.Background()); err != nil {
				slog.Error("Error shutting down meter provider", "error", err)
			}
		}
	}

	metrics, err := telemetry.NewResolutionMetrics(mp)
	if err != nil {
		shutdown()
		return nil, nil, err
	}

	registry, err := factories.NewRegistry()
	if err != nil {
		shutdown()
		return nil, nil, err
	}

	resolver, err := telemetry.NewResolver(registry, metrics)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	return resolver, shutdown, nil
}

// binding is one resolved service in a report.
type binding struct {
	Service string `json:"service"`
	Kind    string `json:"kind"`
	Details any    `json:"details"`
}

// report is the JSON document resolve prints.
type report struct {
	Project     string    `json:"project"`
	GeneratedAt time.Time `json:"generated_at"`
	Bindings    []binding `json:"bindings"`
}

// resolved pairs a service name with its connection details.
type resolved struct {
	service string
	details details.ConnectionDetails
}

// minimumImageVersions is the oldest supported server version per technology.
// Older compose images still resolve, with a warning.
var minimumImageVersions = map[string]string{
	"postgres": "13.0.0",
	"redis":    "6.0.0",
	"rabbitmq": "3.12.0",
	"kafka":    "3.0.0",
}

func warnOutdatedImage(svc *compose.Service, d details.ConnectionDetails) {
	minimum, ok := minimumImageVersions[d.Kind()]
	if !ok {
		return
	}
	tag := svc.ImageTag()
	if tag == "" {
		return
	}
	if !versions.ImageTagAtLeast(tag, minimum) {
		slog.Warn("Service image is older than the oldest supported version",
			"service", svc.Name,
			"image", svc.Image,
			"minimum", minimum)
	}
}

// resolveAll resolves connection details for every service in the compose
// file (when configured) and every connection URL environment variable (when
// enabled). It returns the effective project name and the resolved bindings.
func resolveAll(ctx context.Context, resolver *telemetry.Resolver, cfg *config.Config, prefix string) (string, []resolved, error) {
	composeFile := viper.GetString(prefix + ".compose-file")
	if composeFile == "" {
		composeFile = cfg.GetComposeFile()
	}
	projectName := viper.GetString(prefix + ".project")
	if projectName == "" {
		projectName = cfg.GetProject()
	}
	includeEnv := cfg.EnvEnabled() && !viper.GetBool(prefix+".no-env")

	var out []resolved

	if composeFile != "" {
		var opts []compose.LoadOption
		if projectName != "" {
			opts = append(opts, compose.WithProjectName(projectName))
		}
		project, err := compose.Load(composeFile, opts...)
		switch {
		case err != nil && errors.Is(err, os.ErrNotExist) && includeEnv:
			// An env-only workflow has no compose file; fall through to the
			// environment variables.
			slog.Warn("Compose file not found, resolving from the environment only", "file", composeFile)
			project = &compose.Project{Name: projectName}
		case err != nil:
			return "", nil, fmt.Errorf("failed to load compose file: %w", err)
		}
		projectName = project.Name

		for _, svc := range project.Services {
			produced, err := resolver.Details(ctx, svc)
			if err != nil {
				return "", nil, fmt.Errorf("failed to resolve service %q: %w", svc.Name, err)
			}
			d, ok := produced.(details.ConnectionDetails)
			if !ok {
				slog.Debug("No connection details for service", "service", svc.Name, "image", svc.Image)
				continue
			}
			warnOutdatedImage(svc, d)
			out = append(out, resolved{service: svc.Name, details: d})
		}
	}

	if includeEnv {
		for _, v := range envsource.Collect(os.Environ()) {
			produced, err := resolver.Details(ctx, v)
			if err != nil {
				return "", nil, fmt.Errorf("failed to resolve environment variable %q: %w", v.Key, err)
			}
			d, ok := produced.(details.ConnectionDetails)
			if !ok {
				slog.Debug("No connection details for environment variable", "key", v.Key)
				continue
			}
			out = append(out, resolved{service: v.ServiceName(), details: d})
		}
	}

	if projectName == "" {
		projectName = "default"
	}
	return projectName, out, nil
}

func buildReport(projectName string, resolutions []resolved) *report {
	r := &report{
		Project:     projectName,
		GeneratedAt: time.Now().UTC(),
		Bindings:    []binding{},
	}
	for _, res := range resolutions {
		r.Bindings = append(r.Bindings, binding{
			Service: res.service,
			Kind:    res.details.Kind(),
			Details: res.details,
		})
	}
	return r
}

func runResolve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadCommandConfig("resolve")
	if err != nil {
		return err
	}

	resolver, shutdown, err := newResolver(ctx, "resolve")
	if err != nil {
		return err
	}
	defer shutdown()

	projectName, resolutions, err := resolveAll(ctx, resolver, cfg, "resolve")
	if err != nil {
		return err
	}
	slog.Info("Resolved connection details", "project", projectName, "bindings", len(resolutions))

	output, err := json.MarshalIndent(buildReport(projectName, resolutions), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
