package archive

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"path/filepath"

	"github.com/AJ-SIM/heat-map/internal/schema"
)

// Point is one archived cell returned by a query.
type Point struct {
	Column string   `json:"column"`
	TsS    int64    `json:"ts_s"`
	TsMs   int64    `json:"ts_ms"`
	Value  *float64 `json:"value"`
}

// Query returns archived cells for a device series between from and to
// (ts_s, inclusive). A non-positive to means no upper bound. A device
// with no snapshots yields an empty result, not an error.
func (s *Service) Query(ctx context.Context, device string, kind schema.Kind, from, to int64) ([]Point, error) {
	if to <= 0 {
		to = math.MaxInt64
	}

	pattern := filepath.Join(s.cfg.Dir, device, "*.parquet")

	// read_parquet errors on a glob with no matches, so the no-snapshots
	// case is decided here and every query error below is a real one.
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob snapshots: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	// column is a reserved word in DuckDB's grammar; the identifier must
	// stay quoted.
	query := `
		SELECT "column", ts_s, ts_ms, value
		FROM read_parquet($1)
		WHERE device = $2
		  AND kind = $3
		  AND ts_s >= $4
		  AND ts_s <= $5
		ORDER BY ts_s, "column"
	`

	rows, err := s.db.QueryContext(ctx, query, pattern, device, kind.String(), from, to)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		var value sql.NullFloat64
		if err := rows.Scan(&p.Column, &p.TsS, &p.TsMs, &value); err != nil {
			return nil, err
		}
		if value.Valid {
			p.Value = &value.Float64
		}
		points = append(points, p)
	}

	return points, rows.Err()
}
