package series

import (
	"reflect"
	"testing"

	"github.com/AJ-SIM/heat-map/internal/schema"
)

func f(v float64) *float64 { return &v }

// table builds a clean-series table with a ts_s axis and one value
// column per entry of cols.
func table(times []float64, cols []string, values [][]*float64) *Table {
	t := &Table{Columns: append([]string{"ts_s", "ts_ms"}, cols...)}
	for i, ts := range times {
		row := make([]*float64, len(t.Columns))
		row[0] = f(ts)
		row[1] = f(ts * 1000)
		for j := range cols {
			row[2+j] = values[i][j]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func TestReconstructResetTrim(t *testing.T) {
	in := table(
		[]float64{10, 20, 30, 5, 15},
		[]string{"t0_C"},
		[][]*float64{{f(1)}, {f(2)}, {f(3)}, {f(4)}, {f(5)}},
	)

	d := Reconstruct(in, Options{Kind: schema.KindClean, TrimReset: true})
	if d.State != StateOK {
		t.Fatalf("state = %q, want ok", d.State)
	}

	want := []float64{0, 10}
	if !reflect.DeepEqual(d.TimeS, want) {
		t.Errorf("TimeS = %v, want %v", d.TimeS, want)
	}
	if *d.Values[0][0] != 4 || *d.Values[1][0] != 5 {
		t.Errorf("Values = %v, want rows since the reset", d.Values)
	}
}

func TestReconstructKeepsOnlyLastReset(t *testing.T) {
	in := table(
		[]float64{10, 3, 20, 2, 9},
		[]string{"t0_C"},
		[][]*float64{{f(1)}, {f(2)}, {f(3)}, {f(4)}, {f(5)}},
	)

	d := Reconstruct(in, Options{Kind: schema.KindClean, TrimReset: true})

	want := []float64{0, 7}
	if !reflect.DeepEqual(d.TimeS, want) {
		t.Errorf("TimeS = %v, want data since the final reset only", d.TimeS)
	}
}

func TestReconstructTrimDisabled(t *testing.T) {
	in := table(
		[]float64{10, 20, 5},
		[]string{"t0_C"},
		[][]*float64{{f(1)}, {f(2)}, {f(3)}},
	)

	d := Reconstruct(in, Options{Kind: schema.KindClean, TrimReset: false})
	if len(d.TimeS) != 3 {
		t.Errorf("rows = %d, want all 3 with trimming off", len(d.TimeS))
	}
}

func TestReconstructWindow(t *testing.T) {
	in := table(
		[]float64{0, 30, 61, 90},
		[]string{"t0_C"},
		[][]*float64{{f(1)}, {f(2)}, {f(3)}, {f(4)}},
	)

	d := Reconstruct(in, Options{Kind: schema.KindClean, WindowMins: 1})
	if d.State != StateOK {
		t.Fatalf("state = %q, want ok", d.State)
	}

	want := []float64{0, 31, 60}
	if !reflect.DeepEqual(d.TimeS, want) {
		t.Errorf("TimeS = %v, want %v", d.TimeS, want)
	}
}

func TestReconstructTimeAxisFallback(t *testing.T) {
	// Only ts_ms present: the axis is ts_ms/1000.
	in := &Table{
		Columns: []string{"ts_ms", "t0_C"},
		Rows: [][]*float64{
			{f(1000), f(20)},
			{f(61000), f(21)},
		},
	}

	d := Reconstruct(in, Options{Kind: schema.KindClean})
	if d.State != StateOK {
		t.Fatalf("state = %q, want ok", d.State)
	}
	if !reflect.DeepEqual(d.TimeS, []float64{0, 60}) {
		t.Errorf("TimeS = %v, want [0 60]", d.TimeS)
	}
}

func TestReconstructStates(t *testing.T) {
	tests := []struct {
		name string
		in   *Table
		want State
	}{
		{
			"no time column",
			&Table{Columns: []string{"t0_C"}, Rows: [][]*float64{{f(1)}}},
			StateNoTimeColumn,
		},
		{
			"no rows",
			&Table{Columns: []string{"ts_s", "ts_ms", "t0_C"}},
			StateNoData,
		},
		{
			"no sensor columns",
			&Table{Columns: []string{"ts_s", "ts_ms"}, Rows: [][]*float64{{f(1), f(1000)}}},
			StateNoSensorColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Reconstruct(tt.in, Options{Kind: schema.KindClean})
			if d.State != tt.want {
				t.Errorf("state = %q, want %q", d.State, tt.want)
			}
		})
	}
}

func TestReconstructColumnRenaming(t *testing.T) {
	tests := []struct {
		name  string
		cols  []string
		names []string
		want  []string
	}{
		{
			"names overlay on positional",
			[]string{"t0_C", "t1_C"},
			[]string{"Ambient", "Boiler"},
			[]string{"Ambient_C", "Boiler_C"},
		},
		{
			"positional without names",
			[]string{"t0_C", "t1_C"},
			nil,
			[]string{"Sensor1_C", "Sensor2_C"},
		},
		{
			"already human-named",
			[]string{"Ambient_C", "Boiler_C"},
			nil,
			[]string{"Ambient_C", "Boiler_C"},
		},
		{
			"name count mismatch leaves mixed columns unchanged",
			[]string{"Ambient_C", "t1_C"},
			[]string{"OnlyOne"},
			[]string{"Ambient_C", "t1_C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals := make([][]*float64, 1)
			vals[0] = make([]*float64, len(tt.cols))
			for j := range tt.cols {
				vals[0][j] = f(1)
			}
			in := table([]float64{10}, tt.cols, vals)

			d := Reconstruct(in, Options{Kind: schema.KindClean, Names: tt.names})
			if !reflect.DeepEqual(d.Columns, tt.want) {
				t.Errorf("Columns = %v, want %v", d.Columns, tt.want)
			}
		})
	}
}

func TestReconstructDisplayRounding(t *testing.T) {
	in := table(
		[]float64{10, 20},
		[]string{"t0_C", "t1_C"},
		[][]*float64{
			{f(23.5), f(-23.5)},
			{f(23.49), nil},
		},
	)

	d := Reconstruct(in, Options{Kind: schema.KindClean, RoundDisplay: true})

	if *d.Values[0][0] != 24 {
		t.Errorf("23.5 rounded to %v, want 24", *d.Values[0][0])
	}
	if *d.Values[0][1] != -23 {
		t.Errorf("-23.5 rounded to %v, want -23", *d.Values[0][1])
	}
	if *d.Values[1][0] != 23 {
		t.Errorf("23.49 rounded to %v, want 23", *d.Values[1][0])
	}
	if d.Values[1][1] != nil {
		t.Errorf("missing value = %v, want preserved nil", *d.Values[1][1])
	}
}

func TestReconstructRawSeries(t *testing.T) {
	in := &Table{
		Columns: []string{"ts_s", "ts_ms", "t0_raw"},
		Rows:    [][]*float64{{f(10), f(10000), f(85)}},
	}

	d := Reconstruct(in, Options{Kind: schema.KindRaw})
	if d.State != StateOK {
		t.Fatalf("state = %q, want ok", d.State)
	}
	if d.Columns[0] != "Sensor1_raw" {
		t.Errorf("Columns = %v, want positional raw rename", d.Columns)
	}
}
