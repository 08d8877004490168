package probe_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svcbind/svcbind/internal/probe"
)

func sampleReport(reachable bool) *probe.Report {
	return &probe.Report{
		ID:        "run-1",
		StartedAt: time.Now().UTC(),
		Results: []probe.Result{
			{
				Endpoint:  probe.Endpoint{Service: "db", Kind: "postgres", Addr: "localhost:5432"},
				Reachable: reachable,
			},
		},
	}
}

func TestFilePersistence_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "report.json")
	persistence := probe.NewFilePersistence(path)
	ctx := context.Background()

	// First run has no previous report.
	previous, err := persistence.LoadReport(ctx)
	require.NoError(t, err)
	assert.Nil(t, previous)

	report := sampleReport(true)
	require.NoError(t, persistence.SaveReport(ctx, report))

	loaded, err := persistence.LoadReport(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, report.ID, loaded.ID)
	require.Len(t, loaded.Results, 1)
	assert.Equal(t, "db", loaded.Results[0].Service)
	assert.True(t, loaded.Results[0].Reachable)
}

func TestRegressions(t *testing.T) {
	t.Parallel()

	t.Run("newly unreachable endpoint is reported", func(t *testing.T) {
		t.Parallel()

		regressions := probe.Regressions(sampleReport(true), sampleReport(false))
		require.Len(t, regressions, 1)
		assert.Equal(t, "db", regressions[0].Service)
	})

	t.Run("still unreachable endpoint is not a regression", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, probe.Regressions(sampleReport(false), sampleReport(false)))
	})

	t.Run("recovered endpoint is not a regression", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, probe.Regressions(sampleReport(false), sampleReport(true)))
	})

	t.Run("no previous report", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, probe.Regressions(nil, sampleReport(false)))
	})
}
