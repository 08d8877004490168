package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persistence stores the most recent probe report so consecutive runs can be
// compared.
type Persistence interface {
	// SaveReport saves the probe report to persistent storage
	SaveReport(ctx context.Context, report *Report) error

	// LoadReport loads the previous probe report from persistent storage.
	// Returns nil if no report has been saved yet (first run).
	LoadReport(ctx context.Context) (*Report, error)
}

// FilePersistence implements Persistence using the local filesystem
type FilePersistence struct {
	filePath string
}

var _ Persistence = (*FilePersistence)(nil)

// NewFilePersistence creates a new file-based report persistence
func NewFilePersistence(filePath string) *FilePersistence {
	return &FilePersistence{
		filePath: filePath,
	}
}

// SaveReport saves the probe report to a JSON file
func (f *FilePersistence) SaveReport(_ context.Context, report *Report) error {
	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report data: %w", err)
	}

	// Write to temporary file first for atomic operation
	tempPath := f.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary report file: %w", err)
	}

	if err := os.Rename(tempPath, f.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename report file: %w", err)
	}

	return nil
}

// LoadReport loads the previous probe report from a JSON file
func (f *FilePersistence) LoadReport(_ context.Context) (*Report, error) {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist - this is OK for first run
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report data: %w", err)
	}

	return &report, nil
}

// Regressions returns the endpoints that were reachable in the previous
// report but are not in the current one.
func Regressions(previous, current *Report) []Result {
	if previous == nil || current == nil {
		return nil
	}

	wasReachable := make(map[Endpoint]bool, len(previous.Results))
	for _, r := range previous.Results {
		wasReachable[r.Endpoint] = r.Reachable
	}

	var out []Result
	for _, r := range current.Results {
		if !r.Reachable && wasReachable[r.Endpoint] {
			out = append(out, r)
		}
	}
	return out
}
