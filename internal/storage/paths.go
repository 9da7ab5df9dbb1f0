package storage

import (
	"path/filepath"
	"strings"

	"github.com/AJ-SIM/heat-map/internal/schema"
)

// FileSet is the per-device file trio. The mapping from device id to
// paths is pure: no registry, no cached state.
type FileSet struct {
	Clean string
	Raw   string
	Meta  string
}

// Files returns the file trio for a device under dataDir.
//
// Layout per device id D:
//
//	{D}.csv        clean series
//	{D}_raw.csv    raw series
//	{D}_meta.json  sensor-name metadata
func Files(dataDir, device string) FileSet {
	return FileSet{
		Clean: filepath.Join(dataDir, device+".csv"),
		Raw:   filepath.Join(dataDir, device+"_raw.csv"),
		Meta:  filepath.Join(dataDir, device+"_meta.json"),
	}
}

// Series returns the series path for the given kind.
func (f FileSet) Series(kind schema.Kind) string {
	if kind == schema.KindRaw {
		return f.Raw
	}
	return f.Clean
}

// LegacyPath returns the archive name a rotated series file is renamed
// to: the ".csv" suffix is replaced with "_legacy.csv".
func LegacyPath(path string) string {
	return strings.TrimSuffix(path, ".csv") + "_legacy.csv"
}
