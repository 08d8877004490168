package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/svcbind/svcbind/internal/db"
	"github.com/svcbind/svcbind/internal/oidc"
	"github.com/svcbind/svcbind/internal/probe"
	"github.com/svcbind/svcbind/pkg/details"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Resolve connection details and check that endpoints are reachable",
	Long: `Resolve connection details like the resolve command, then dial every
resolved endpoint over TCP and print a reachability report on stdout.
The command exits non-zero when any endpoint is unreachable.`,
	RunE: runProbe,
}

func init() {
	addSourceFlags(probeCmd, "probe")

	probeCmd.Flags().Duration("timeout", 0, "Per-attempt dial timeout (overrides config)")
	probeCmd.Flags().Int("max-attempts", 0, "Dial attempts per endpoint (overrides config)")
	probeCmd.Flags().Bool("connect", false, "Also open protocol-level connections (Postgres pools, OIDC key sets)")
	probeCmd.Flags().String("state-file", "", "File to persist the report in, for regression detection between runs")

	for _, name := range []string{"timeout", "max-attempts", "connect", "state-file"} {
		if err := viper.BindPFlag("probe."+name, probeCmd.Flags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
			os.Exit(1)
		}
	}
}

func runProbe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadCommandConfig("probe")
	if err != nil {
		return err
	}

	resolver, shutdown, err := newResolver(ctx, "probe")
	if err != nil {
		return err
	}
	defer shutdown()

	projectName, resolutions, err := resolveAll(ctx, resolver, cfg, "probe")
	if err != nil {
		return err
	}

	var endpoints []probe.Endpoint
	for _, res := range resolutions {
		endpoints = append(endpoints, probe.Endpoints(res.service, res.details)...)
	}
	if len(endpoints) == 0 {
		return fmt.Errorf("no endpoints resolved for project %q", projectName)
	}

	timeout := cfg.ProbeTimeout()
	if d := viper.GetDuration("probe.timeout"); d > 0 {
		timeout = d
	}
	attempts := cfg.ProbeAttempts()
	if n := viper.GetInt("probe.max-attempts"); n > 0 {
		attempts = n
	}

	prober, err := probe.New(
		probe.WithTimeout(timeout),
		probe.WithMaxAttempts(attempts),
		probe.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}

	slog.Info("Probing endpoints",
		"project", projectName,
		"endpoints", len(endpoints),
		"timeout", timeout.String(),
		"max_attempts", attempts)

	started := time.Now()
	rep := prober.Probe(ctx, endpoints)

	if stateFile := viper.GetString("probe.state-file"); stateFile != "" {
		persistence := probe.NewFilePersistence(stateFile)
		previous, err := persistence.LoadReport(ctx)
		if err != nil {
			return err
		}
		for _, regression := range probe.Regressions(previous, rep) {
			slog.Warn("Endpoint was reachable in the previous run",
				"service", regression.Service,
				"kind", regression.Kind,
				"addr", regression.Addr)
		}
		if err := persistence.SaveReport(ctx, rep); err != nil {
			return err
		}
	}

	output, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	fmt.Println(string(output))

	if !rep.Reachable() {
		return fmt.Errorf("one or more endpoints are unreachable")
	}
	slog.Info("All endpoints reachable", "elapsed", time.Since(started).String())

	if viper.GetBool("probe.connect") {
		return connectChecks(ctx, resolutions, timeout)
	}
	return nil
}

// connectChecks opens protocol-level connections for the detail kinds that
// support one: a pgx pool ping for Postgres and a key set fetch for OIDC.
// TCP-only kinds are covered by the dial probe and skipped here.
func connectChecks(ctx context.Context, resolutions []resolved, timeout time.Duration) error {
	var failed int
	for _, res := range resolutions {
		switch d := res.details.(type) {
		case *details.Postgres:
			pool, err := db.Connect(ctx, d, db.WithConnectTimeout(timeout))
			if err != nil {
				slog.Error("Postgres connection check failed", "service", res.service, "error", err)
				failed++
				continue
			}
			pool.Close()
			slog.Info("Postgres connection check passed", "service", res.service)
		case *details.OIDC:
			validator, err := oidc.NewValidator(ctx, d)
			if err == nil {
				readyCtx, cancel := context.WithTimeout(ctx, timeout)
				err = validator.Ready(readyCtx)
				cancel()
			}
			if err != nil {
				slog.Error("OIDC key set check failed", "service", res.service, "error", err)
				failed++
				continue
			}
			slog.Info("OIDC key set check passed", "service", res.service)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d connection checks failed", failed)
	}
	return nil
}
