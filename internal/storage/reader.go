package storage

import (
	"encoding/json"
	"os"

	"github.com/AJ-SIM/heat-map/internal/errors"
	"github.com/AJ-SIM/heat-map/internal/schema"
)

// ReadSeries returns the full on-disk contents of a device series.
// Legacy files are never read here; they are write-once archives.
func (s *Store) ReadSeries(device string, kind schema.Kind) ([]byte, error) {
	path := Files(s.dataDir, device).Series(kind)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrSeriesNotFound,
				"device %q %s series", device, kind.String())
		}
		return nil, errors.NewStorage("read series", err)
	}
	return data, nil
}

// ReadNames returns the sensor-name metadata for a device, or
// ErrNamesNotFound when no metadata was ever written.
func (s *Store) ReadNames(device string) ([]string, error) {
	path := Files(s.dataDir, device).Meta

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNamesNotFound, "device %q", device)
		}
		return nil, errors.NewStorage("read metadata", err)
	}

	var meta metaFile
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.NewStorage("parse metadata", err)
	}
	return meta.Names, nil
}
