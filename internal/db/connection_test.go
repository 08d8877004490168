package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svcbind/svcbind/internal/db"
	"github.com/svcbind/svcbind/pkg/details"
)

func postgresDetails() *details.Postgres {
	return &details.Postgres{
		Host:     "localhost",
		Port:     5432,
		Database: "app",
		Username: "app",
		Password: "secret",
		SSLMode:  "disable",
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	cfg, err := db.BuildConfig(postgresDetails())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), cfg.ConnConfig.Port)
	assert.Equal(t, "app", cfg.ConnConfig.Database)
	assert.Equal(t, "app", cfg.ConnConfig.User)
	assert.Equal(t, "secret", cfg.ConnConfig.Password)
	assert.Equal(t, int32(25), cfg.MaxConns)
}

func TestBuildConfig_Options(t *testing.T) {
	t.Parallel()

	cfg, err := db.BuildConfig(postgresDetails(),
		db.WithMaxConns(5),
		db.WithConnectTimeout(time.Second),
	)
	require.NoError(t, err)

	assert.Equal(t, int32(5), cfg.MaxConns)
	assert.Equal(t, time.Second, cfg.ConnConfig.ConnectTimeout)
}

func TestBuildConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		details *details.Postgres
		opts    []db.Option
	}{
		{
			name: "nil details",
		},
		{
			name:    "missing host",
			details: &details.Postgres{Database: "app"},
		},
		{
			name:    "non-positive max conns",
			details: postgresDetails(),
			opts:    []db.Option{db.WithMaxConns(0)},
		},
		{
			name:    "non-positive timeout",
			details: postgresDetails(),
			opts:    []db.Option{db.WithConnectTimeout(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := db.BuildConfig(tt.details, tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestConnect_UnreachableEndpoint(t *testing.T) {
	t.Parallel()

	d := postgresDetails()
	// Port 1 is reserved and nothing listens there.
	d.Port = 1

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := db.Connect(ctx, d, db.WithConnectTimeout(250*time.Millisecond))
	assert.Error(t, err)
}
