package series

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AJ-SIM/heat-map/internal/schema"
)

// State reports why a reconstruction produced no drawable series.
type State string

const (
	// StateOK means the display series is usable.
	StateOK State = "ok"
	// StateNoData means the series has no rows yet.
	StateNoData State = "no_data"
	// StateNoTimeColumn means neither ts_s nor ts_ms is present.
	StateNoTimeColumn State = "no_time_column"
	// StateNoSensorColumns means no value columns carry the series suffix.
	StateNoSensorColumns State = "no_sensor_columns"
)

// Options controls reconstruction.
type Options struct {
	// Kind selects the value-column suffix (_C or _raw).
	Kind schema.Kind

	// WindowMins is the trailing window in minutes, anchored at the
	// last row. Zero or negative keeps the whole series.
	WindowMins int

	// TrimReset drops all rows from before the most recent backward
	// jump in the device's uptime-based time axis.
	TrimReset bool

	// Names is the sensor-name metadata overlay, if any.
	Names []string

	// RoundDisplay applies half-up rounding to every value.
	RoundDisplay bool
}

// Display is a windowed, renamed, optionally rounded series ready for a
// viewer. TimeS is re-zeroed so the earliest kept row is at time 0.
type Display struct {
	State   State
	TimeS   []float64
	Columns []string
	Values  [][]*float64
}

// Reconstruct derives a display series from a stored table.
//
// The time axis prefers ts_s and falls back to ts_ms/1000. Rows without
// a time value are dropped. Reset trimming keeps only rows since the
// last strictly-decreasing time step; when multiple resets exist,
// everything before the final one is discarded. Reconstruction never
// fails: empty and column-less inputs surface as explicit states.
func Reconstruct(t *Table, opts Options) *Display {
	timeIdx, scale := timeAxis(t)
	if timeIdx < 0 {
		return &Display{State: StateNoTimeColumn}
	}

	// Rows with a usable time value, in stored order.
	type point struct {
		abs float64
		row []*float64
	}
	var points []point
	for _, row := range t.Rows {
		if row[timeIdx] == nil {
			continue
		}
		points = append(points, point{abs: *row[timeIdx] * scale, row: row})
	}

	if len(points) == 0 {
		return &Display{State: StateNoData}
	}

	if opts.TrimReset && len(points) > 1 {
		reset := -1
		for i := 1; i < len(points); i++ {
			if points[i].abs < points[i-1].abs {
				reset = i
			}
		}
		if reset >= 0 {
			points = points[reset:]
		}
	}

	if opts.WindowMins > 0 {
		now := points[len(points)-1].abs
		cut := now - float64(opts.WindowMins)*60.0
		kept := points[:0]
		for _, p := range points {
			if p.abs >= cut {
				kept = append(kept, p)
			}
		}
		points = kept
	}

	if len(points) == 0 {
		return &Display{State: StateNoData}
	}

	valIdx, valCols := valueColumns(t, opts.Kind)
	if len(valIdx) == 0 {
		return &Display{State: StateNoSensorColumns}
	}

	origin := points[0].abs
	for _, p := range points {
		if p.abs < origin {
			origin = p.abs
		}
	}

	d := &Display{
		State:   StateOK,
		TimeS:   make([]float64, len(points)),
		Columns: renameColumns(valCols, opts.Kind, opts.Names),
		Values:  make([][]*float64, len(points)),
	}

	for i, p := range points {
		d.TimeS[i] = p.abs - origin
		vals := make([]*float64, len(valIdx))
		for j, idx := range valIdx {
			cell := p.row[idx]
			if cell == nil {
				continue
			}
			v := *cell
			if opts.RoundDisplay {
				v = RoundHalfUp(v)
			}
			vals[j] = &v
		}
		d.Values[i] = vals
	}

	return d
}

// timeAxis locates the time column: ts_s preferred, ts_ms/1000 as
// fallback. Returns -1 when neither exists.
func timeAxis(t *Table) (idx int, scale float64) {
	if i := t.Column("ts_s"); i >= 0 {
		return i, 1.0
	}
	if i := t.Column("ts_ms"); i >= 0 {
		return i, 1.0 / 1000.0
	}
	return -1, 0
}

// valueColumns returns the indices and names of columns carrying the
// series suffix.
func valueColumns(t *Table, kind schema.Kind) ([]int, []string) {
	var idx []int
	var cols []string
	for i, c := range t.Columns {
		if strings.HasSuffix(c, kind.Suffix()) {
			idx = append(idx, i)
			cols = append(cols, c)
		}
	}
	return idx, cols
}

// renameColumns overlays sensor names onto positional column names.
//
// When the overlay length matches the column count, positional t{i}
// columns become {name}; when no overlay is usable and every column is
// positional, they become Sensor{i+1}; otherwise the columns are
// already human-named and stay unchanged.
func renameColumns(cols []string, kind schema.Kind, names []string) []string {
	pat := regexp.MustCompile(`^t(\d+)` + regexp.QuoteMeta(kind.Suffix()) + `$`)

	out := make([]string, len(cols))
	copy(out, cols)

	if len(names) == len(cols) && len(names) > 0 {
		for i, c := range cols {
			if pat.MatchString(c) {
				out[i] = names[i] + kind.Suffix()
			}
		}
		return out
	}

	allPositional := true
	for _, c := range cols {
		if !pat.MatchString(c) {
			allPositional = false
			break
		}
	}
	if allPositional {
		for i := range cols {
			out[i] = fmt.Sprintf("Sensor%d%s", i+1, kind.Suffix())
		}
	}
	return out
}
