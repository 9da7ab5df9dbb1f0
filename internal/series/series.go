// Package series reconstructs display-ready time series from stored
// device files.
//
// A stored series is a header-declared CSV whose rows share one fixed
// column count. Reconstruction derives the time axis, trims rows from
// before the most recent device reset, selects a trailing window,
// overlays sensor names onto positional column names, and applies
// half-up display rounding. Absence of usable data is a reportable
// state, not a failure.
package series

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"strconv"
)

// Table is a parsed series: a header plus numeric rows. Cells that are
// empty or unparseable are nil.
type Table struct {
	Columns []string
	Rows    [][]*float64
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Parse reads a stored series. Rows whose field count disagrees with the
// header are skipped: a read can race a concurrent append and observe a
// partial final line.
func Parse(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return &Table{}, nil
		}
		return nil, err
	}

	t := &Table{Columns: header}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line, skip it.
			continue
		}
		if len(record) != len(header) {
			continue
		}

		row := make([]*float64, len(record))
		for i, cell := range record {
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue
			}
			row[i] = &v
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// RoundHalfUp rounds to the nearest integer with ties away from
// negative infinity: 23.5 rounds to 24, -23.5 rounds to -23.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
