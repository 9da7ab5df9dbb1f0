// Package schema derives the expected column layout of a device series
// and detects drift against the header already on disk.
//
// A series file always starts with two timestamp columns (ts_s, ts_ms)
// followed by one column per sensor. The sensor columns carry the
// supplied sensor names when the name count matches the sensor count,
// and positional fallback names otherwise.
package schema

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Kind selects between the two parallel series a device owns.
type Kind int

const (
	// KindClean is the calibrated series ({name}_C columns).
	KindClean Kind = iota
	// KindRaw is the sensor-native series ({name}_raw columns).
	KindRaw
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindClean:
		return "clean"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Suffix returns the column suffix for the kind.
func (k Kind) Suffix() string {
	switch k {
	case KindRaw:
		return "_raw"
	default:
		return "_C"
	}
}

// TimeColumns is the number of leading timestamp columns in every series.
const TimeColumns = 2

// ExpectedColumns returns the total column count for a series with
// sensors sensor columns.
func ExpectedColumns(sensors int) int {
	return TimeColumns + sensors
}

// Header synthesizes the header row for a series. When names is present
// and its length equals sensors, the sensor columns are named after it;
// otherwise the positional fallback t{i} is used.
func Header(kind Kind, names []string, sensors int) []string {
	header := make([]string, 0, ExpectedColumns(sensors))
	header = append(header, "ts_s", "ts_ms")

	if len(names) == sensors && sensors > 0 {
		for _, name := range names {
			header = append(header, name+kind.Suffix())
		}
		return header
	}

	for i := 0; i < sensors; i++ {
		header = append(header, fmt.Sprintf("t%d%s", i, kind.Suffix()))
	}
	return header
}

// ColumnCount counts the columns in a raw header line. An empty line
// counts as zero columns.
func ColumnCount(line string) int {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return 0
	}
	return strings.Count(line, ",") + 1
}

// Inspect reads the header of the file at path and reports whether its
// column count differs from expected. A missing file is not drift: the
// writer creates it with the current layout on first append.
func Inspect(path string, expected int) (drift bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open header: %w", err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		// Unreadable or empty file counts as zero columns.
		return expected != 0, nil
	}

	return ColumnCount(line) != expected, nil
}
