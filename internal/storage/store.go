// Package storage owns the per-device file trio: the clean CSV series,
// the raw CSV series, and the sensor-name metadata JSON.
//
// The write sequence (rotate-check, header-create, append) spans several
// file operations and is serialized per device id, restoring the
// single-writer assumption the file layout relies on. Reads are single
// whole-file reads and run without the device lock; a read racing an
// append may observe a partial final line, which the read path skips.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/AJ-SIM/heat-map/internal/errors"
	"github.com/AJ-SIM/heat-map/internal/ingest"
	"github.com/AJ-SIM/heat-map/internal/logging"
	"github.com/AJ-SIM/heat-map/internal/schema"
)

// Store writes and reads per-device series files under a base directory.
type Store struct {
	dataDir  string
	archiver Archiver
	log      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithArchiver installs an archiver that snapshots series files before
// rotation renames them away.
func WithArchiver(a Archiver) Option {
	return func(s *Store) {
		s.archiver = a
	}
}

// New creates a Store rooted at dataDir, creating the directory if
// needed.
func New(dataDir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.NewStorage("create data dir", err)
	}

	s := &Store{
		dataDir: dataDir,
		log:     logging.Component("storage"),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DataDir returns the base storage directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// deviceLock returns the mutex serializing file operations for a device.
func (s *Store) deviceLock(device string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.locks[device]
	if !ok {
		m = &sync.Mutex{}
		s.locks[device] = m
	}
	return m
}

// Ack acknowledges an accepted reading.
type Ack struct {
	Sensors int
}

// Append persists one normalized reading.
//
// Per call: rotate both series on column-count drift, create missing
// headers, write the sensor-name metadata once if absent and names were
// supplied, append one clean row, and append one raw row only when the
// raw array length equals the sensor count.
//
// Header creation and row appends are required writes; their failure
// aborts the request. Rotation and metadata are best-effort.
func (s *Store) Append(r *ingest.Reading) (Ack, error) {
	files := Files(s.dataDir, r.Device)
	n := r.Sensors()
	expected := schema.ExpectedColumns(n)

	lock := s.deviceLock(r.Device)
	lock.Lock()
	defer lock.Unlock()

	for _, kind := range []schema.Kind{schema.KindClean, schema.KindRaw} {
		if be := s.rotateIfDrift(r.Device, kind, files.Series(kind), expected); be.Outcome == errors.OutcomeFailed {
			s.log.Warn("rotation check failed",
				"device", r.Device, "kind", kind.String(), "error", be.Err)
		}
	}

	if err := ensureHeader(files.Clean, schema.Header(schema.KindClean, r.Names, n)); err != nil {
		return Ack{}, err
	}
	if err := ensureHeader(files.Raw, schema.Header(schema.KindRaw, r.Names, n)); err != nil {
		return Ack{}, err
	}

	if len(r.Names) > 0 {
		if be := writeMetaOnce(files.Meta, r.Names); be.Outcome == errors.OutcomeFailed {
			s.log.Warn("metadata write failed", "device", r.Device, "error", be.Err)
		}
	}

	if err := appendRow(files.Clean, r.TimestampS, r.TimestampMs, r.Temps); err != nil {
		return Ack{}, err
	}

	if r.HasRawRow() {
		if err := appendRow(files.Raw, r.TimestampS, r.TimestampMs, r.Raw); err != nil {
			return Ack{}, err
		}
	}

	s.log.Info("reading saved",
		"device", r.Device, "sensors", n, "ts_ms", r.TimestampMs)
	return Ack{Sensors: n}, nil
}

// ensureHeader creates the series file with the given header when it
// does not exist yet.
func ensureHeader(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.NewStorage("stat series", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewStorage("create series", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.NewStorage("write header", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewStorage("write header", err)
	}
	return nil
}

// appendRow appends one row to a series file. Missing values serialize
// as empty fields.
func appendRow(path string, tsS, tsMs int64, values []*float64) error {
	record := make([]string, 0, schema.TimeColumns+len(values))
	record = append(record,
		strconv.FormatInt(tsS, 10),
		strconv.FormatInt(tsMs, 10))
	for _, v := range values {
		if v == nil {
			record = append(record, "")
		} else {
			record = append(record, strconv.FormatFloat(*v, 'g', -1, 64))
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewStorage("open series", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return errors.NewStorage("append row", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewStorage("append row", err)
	}
	return nil
}

type metaFile struct {
	Names []string `json:"names"`
}

// writeMetaOnce writes the sensor-name metadata if it does not exist.
// Metadata is immutable once written: later readings with different
// names never overwrite it.
func writeMetaOnce(path string, names []string) errors.BestEffort {
	if _, err := os.Stat(path); err == nil {
		return errors.Skipped()
	}

	data, err := json.MarshalIndent(metaFile{Names: names}, "", "  ")
	if err != nil {
		return errors.Failed(err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Skipped()
		}
		return errors.Failed(err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Failed(err)
	}
	return errors.Effected()
}
