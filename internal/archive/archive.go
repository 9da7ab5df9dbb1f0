// Package archive preserves rotated-out series as Parquet snapshots.
//
// The live storage contract keeps at most one legacy CSV per series, so
// a second schema change overwrites the first archive. When archiving
// is enabled, the store hands each outgoing series file to this package
// before the legacy rename, and the data survives as a timestamped
// Parquet file under {dir}/{device}/. Snapshots are queryable through
// DuckDB and pruned by a retention sweep.
package archive

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/AJ-SIM/heat-map/internal/errors"
	"github.com/AJ-SIM/heat-map/internal/logging"
	"github.com/AJ-SIM/heat-map/internal/schema"
	"github.com/AJ-SIM/heat-map/internal/series"

	_ "github.com/marcboeker/go-duckdb"
)

// stampLayout names snapshot files; the retention sweep parses it back.
const stampLayout = "2006-01-02_15-04-05"

// Config configures the archive service.
type Config struct {
	// Dir is the root directory for Parquet snapshots.
	Dir string

	// Retention is the maximum snapshot age. Zero disables pruning.
	Retention time.Duration

	// Compression is the Parquet codec: snappy, zstd, lz4, gzip, none.
	Compression string
}

// Service writes, queries, and prunes Parquet snapshots.
type Service struct {
	cfg Config
	log *slog.Logger
	db  *sql.DB

	now func() time.Time
}

// New creates the archive service and opens an in-memory DuckDB used
// for snapshot queries.
func New(cfg Config) (*Service, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	return &Service{
		cfg: cfg,
		log: logging.Component("archive"),
		db:  db,
		now: time.Now,
	}, nil
}

// Close closes the query database.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Row is the long-format Parquet schema for archived cells: one row per
// (timestamp, column) pair. Long format keeps one schema across series
// with any sensor count.
type Row struct {
	Device string   `parquet:"device,dict"`
	Kind   string   `parquet:"kind,dict"`
	Column string   `parquet:"column,dict"`
	TsS    int64    `parquet:"ts_s"`
	TsMs   int64    `parquet:"ts_ms"`
	Value  *float64 `parquet:"value,optional"`
}

// Snapshot archives the series file at path as a Parquet snapshot.
// It is best-effort: a failure is reported, never fatal to rotation.
func (s *Service) Snapshot(device string, kind schema.Kind, path string) errors.BestEffort {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Skipped()
		}
		return errors.Failed(fmt.Errorf("read series: %w", err))
	}

	table, err := series.Parse(data)
	if err != nil {
		return errors.Failed(fmt.Errorf("parse series: %w", err))
	}

	rows := tableToRows(device, kind, table)
	if len(rows) == 0 {
		return errors.Skipped()
	}

	deviceDir := filepath.Join(s.cfg.Dir, device)
	if err := os.MkdirAll(deviceDir, 0755); err != nil {
		return errors.Failed(fmt.Errorf("create device dir: %w", err))
	}

	name := fmt.Sprintf("%s_%s.parquet", kind.String(), s.now().UTC().Format(stampLayout))
	target := filepath.Join(deviceDir, name)

	if err := writeParquet(target, rows, s.cfg.Compression); err != nil {
		return errors.Failed(err)
	}

	s.log.Info("archived series snapshot",
		"device", device, "kind", kind.String(), "rows", len(rows), "file", name)
	return errors.Effected()
}

// tableToRows flattens a parsed series into long-format rows.
func tableToRows(device string, kind schema.Kind, t *series.Table) []Row {
	tsSIdx := t.Column("ts_s")
	tsMsIdx := t.Column("ts_ms")

	var rows []Row
	for colIdx, col := range t.Columns {
		if colIdx == tsSIdx || colIdx == tsMsIdx {
			continue
		}
		for _, r := range t.Rows {
			row := Row{
				Device: device,
				Kind:   kind.String(),
				Column: col,
				Value:  r[colIdx],
			}
			if tsSIdx >= 0 && r[tsSIdx] != nil {
				row.TsS = int64(*r[tsSIdx])
			}
			if tsMsIdx >= 0 && r[tsMsIdx] != nil {
				row.TsMs = int64(*r[tsMsIdx])
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// writeParquet writes rows to a new Parquet file.
func writeParquet(path string, rows []Row, compression string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	w := parquet.NewGenericWriter[Row](f, parquet.Compression(codec(compression)))

	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close snapshot: %w", err)
	}
	return f.Close()
}

// codec maps a codec name to a parquet-go compression codec.
func codec(name string) compress.Codec {
	switch name {
	case "snappy":
		return &parquet.Snappy
	case "lz4":
		return &parquet.Lz4Raw
	case "gzip":
		return &parquet.Gzip
	case "none":
		return &parquet.Uncompressed
	default:
		return &parquet.Zstd
	}
}
