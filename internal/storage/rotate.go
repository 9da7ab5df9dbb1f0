package storage

import (
	"os"

	"github.com/AJ-SIM/heat-map/internal/errors"
	"github.com/AJ-SIM/heat-map/internal/schema"
)

// Archiver preserves a series file that is about to be rotated away.
// The store calls it before the legacy rename so the outgoing data
// survives even when a later rotation overwrites the legacy file.
type Archiver interface {
	Snapshot(device string, kind schema.Kind, path string) errors.BestEffort
}

// rotateIfDrift inspects the series file at path and, when its header
// column count no longer matches expected, renames it to the legacy
// name so a fresh file with the new header can be created.
//
// Rotation is best-effort: inspection and rename failures are reported
// as a failed outcome but never abort the ingest path. A prior legacy
// file at the same path is overwritten by the rename.
func (s *Store) rotateIfDrift(device string, kind schema.Kind, path string, expected int) errors.BestEffort {
	drift, err := schema.Inspect(path, expected)
	if err != nil {
		return errors.Failed(errors.Wrap(err, "inspect header"))
	}
	if !drift {
		return errors.Skipped()
	}

	if s.archiver != nil {
		if be := s.archiver.Snapshot(device, kind, path); be.Outcome == errors.OutcomeFailed {
			s.log.Warn("archive snapshot failed",
				"device", device, "kind", kind.String(), "error", be.Err)
		}
	}

	if err := os.Rename(path, LegacyPath(path)); err != nil {
		return errors.Failed(errors.Wrap(err, "rename to legacy"))
	}

	s.log.Info("rotated series file on schema drift",
		"device", device, "kind", kind.String(), "expected_columns", expected)
	return errors.Effected()
}
