package versions

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetWithValues(t *testing.T) {
	t.Parallel()

	t.Run("release values pass through", func(t *testing.T) {
		t.Parallel()

		info := getWithValues("1.2.3", "abcdef1234567890", "2026-01-15T10:30:00Z")
		assert.Equal(t, "1.2.3", info.Version)
		assert.Equal(t, "abcdef1234567890", info.Commit)
		assert.Equal(t, "2026-01-15 10:30:00 UTC", info.BuildDate)
		assert.Equal(t, runtime.Version(), info.GoVersion)
		assert.Contains(t, info.Platform, runtime.GOOS)
	})

	t.Run("dev version manufactured from commit", func(t *testing.T) {
		t.Parallel()

		info := getWithValues("dev", "abcdef1234567890", "2026-01-15T10:30:00Z")
		assert.Equal(t, "build-abcdef12", info.Version)
	})

	t.Run("unknown build date left as is", func(t *testing.T) {
		t.Parallel()

		info := getWithValues("1.0.0", "abc", unknownStr)
		assert.Equal(t, unknownStr, info.BuildDate)
	})
}
