package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupResult holds the result of one retention sweep.
type CleanupResult struct {
	FilesDeleted int
	BytesFreed   int64
	FilesSkipped int
	Errors       []error
}

// RunRetention deletes snapshots older than the configured retention.
// Files whose names do not parse back to a timestamp are skipped, never
// deleted.
func (s *Service) RunRetention() CleanupResult {
	var result CleanupResult

	if s.cfg.Retention <= 0 {
		return result
	}
	cutoff := s.now().UTC().Add(-s.cfg.Retention)

	devices, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, fmt.Errorf("list archive dir: %w", err))
		}
		return result
	}

	for _, dev := range devices {
		if !dev.IsDir() {
			continue
		}
		deviceDir := filepath.Join(s.cfg.Dir, dev.Name())

		entries, err := os.ReadDir(deviceDir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("list %s: %w", deviceDir, err))
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".parquet" {
				continue
			}

			stamp, err := parseSnapshotTime(entry.Name())
			if err != nil {
				result.FilesSkipped++
				continue
			}
			if stamp.After(cutoff) {
				result.FilesSkipped++
				continue
			}

			path := filepath.Join(deviceDir, entry.Name())
			info, infoErr := entry.Info()
			if err := os.Remove(path); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("delete %s: %w", path, err))
				continue
			}
			if infoErr == nil {
				result.BytesFreed += info.Size()
			}
			result.FilesDeleted++
		}
	}

	if result.FilesDeleted > 0 || len(result.Errors) > 0 {
		s.log.Info("retention sweep complete",
			"deleted", result.FilesDeleted,
			"bytes_freed", result.BytesFreed,
			"skipped", result.FilesSkipped,
			"errors", len(result.Errors))
	}
	return result
}

// RetentionLoop runs retention sweeps on the given interval until the
// context is canceled.
func (s *Service) RetentionLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunRetention()
		}
	}
}

// parseSnapshotTime extracts the timestamp from a snapshot filename of
// the form {kind}_{stamp}.parquet.
func parseSnapshotTime(name string) (time.Time, error) {
	base := strings.TrimSuffix(name, ".parquet")
	i := strings.IndexByte(base, '_')
	if i < 0 {
		return time.Time{}, fmt.Errorf("no kind prefix in %q", name)
	}
	return time.Parse(stampLayout, base[i+1:])
}
