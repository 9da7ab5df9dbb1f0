package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AJ-SIM/heat-map/internal/storage"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(&Config{Store: store})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	h := testServer(t).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	body := decode(t, w)
	if body["ok"] != true || body["app"] != AppName {
		t.Errorf("body = %v", body)
	}
}

func TestIngest(t *testing.T) {
	h := testServer(t).Handler()

	payload := `{"device":"boiler-room","ts":1700000000500,"names":["Ambient","Boiler"],"temps":[21.5,55.0],"raw":[54,120]}`
	w := do(t, h, http.MethodPost, "/ingest", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	if body["ok"] != true {
		t.Errorf("ok = %v", body["ok"])
	}
	if body["n"] != float64(2) {
		t.Errorf("n = %v, want 2", body["n"])
	}
}

func TestIngestBadPayload(t *testing.T) {
	h := testServer(t).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"missing ts", `{"device":"d","temps":[20]}`},
		{"missing temps", `{"device":"d","ts":1000}`},
		{"bad device id", `{"device":"../../etc","ts":1000,"temps":[20]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/ingest", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			body := decode(t, w)
			if body["ok"] != false || body["error"] != "bad payload" {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestSeriesRoundTrip(t *testing.T) {
	h := testServer(t).Handler()

	payload := `{"device":"boiler-room","ts":1500,"names":["Ambient"],"temps":[21.5],"raw":[54]}`
	if w := do(t, h, http.MethodPost, "/ingest", payload); w.Code != http.StatusOK {
		t.Fatalf("ingest status = %d", w.Code)
	}

	w := do(t, h, http.MethodGet, "/data/boiler-room/clean.csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("clean.csv status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := "ts_s,ts_ms,Ambient_C\n2,1500,21.5\n"
	if w.Body.String() != want {
		t.Errorf("clean.csv = %q, want %q", w.Body.String(), want)
	}

	w = do(t, h, http.MethodGet, "/data/boiler-room/raw.csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("raw.csv status = %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "ts_s,ts_ms,Ambient_raw\n") {
		t.Errorf("raw.csv = %q", w.Body.String())
	}
}

func TestSeriesNotFound(t *testing.T) {
	h := testServer(t).Handler()

	for _, path := range []string{
		"/data/unknown/clean.csv",
		"/data/unknown/raw.csv",
		"/data/.hidden/clean.csv",
	} {
		if w := do(t, h, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, w.Code)
		}
	}
}

func TestNames(t *testing.T) {
	h := testServer(t).Handler()

	// Unknown devices answer with a null name list, not an error.
	w := do(t, h, http.MethodGet, "/data/unknown/names.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode(t, w); body["names"] != nil {
		t.Errorf("names = %v, want null", body["names"])
	}

	payload := `{"device":"boiler-room","ts":1000,"names":["Ambient","Boiler"],"temps":[21,55]}`
	if w := do(t, h, http.MethodPost, "/ingest", payload); w.Code != http.StatusOK {
		t.Fatalf("ingest status = %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/data/boiler-room/names.json", "")
	body := decode(t, w)
	names, ok := body["names"].([]any)
	if !ok || len(names) != 2 || names[0] != "Ambient" || names[1] != "Boiler" {
		t.Errorf("names = %v, want [Ambient Boiler]", body["names"])
	}
}

func TestWindow(t *testing.T) {
	h := testServer(t).Handler()

	// Two readings 30s apart, values chosen to exercise rounding.
	for _, p := range []string{
		`{"device":"boiler-room","ts":1000,"names":["Ambient"],"temps":[21.5]}`,
		`{"device":"boiler-room","ts":31000,"names":["Ambient"],"temps":[22.4]}`,
	} {
		if w := do(t, h, http.MethodPost, "/ingest", p); w.Code != http.StatusOK {
			t.Fatalf("ingest status = %d", w.Code)
		}
	}

	w := do(t, h, http.MethodGet, "/data/boiler-room/window.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		State   string       `json:"state"`
		TimeS   []float64    `json:"time_s"`
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.State != "ok" {
		t.Fatalf("state = %q", resp.State)
	}
	if len(resp.TimeS) != 2 || resp.TimeS[0] != 0 || resp.TimeS[1] != 30 {
		t.Errorf("time_s = %v, want [0 30]", resp.TimeS)
	}
	if len(resp.Columns) != 1 || resp.Columns[0] != "Ambient_C" {
		t.Errorf("columns = %v, want [Ambient_C]", resp.Columns)
	}
	if *resp.Values[0][0] != 22 || *resp.Values[1][0] != 22 {
		t.Errorf("values = %v, want half-up rounded readings", resp.Values)
	}
}

func TestWindowStates(t *testing.T) {
	h := testServer(t).Handler()

	if w := do(t, h, http.MethodGet, "/data/unknown/window.json", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown device status = %d, want 404", w.Code)
	}
}

func TestStats(t *testing.T) {
	h := testServer(t).Handler()

	for _, p := range []string{
		`{"device":"boiler-room","ts":1000,"names":["Ambient"],"temps":[20]}`,
		`{"device":"boiler-room","ts":2000,"names":["Ambient"],"temps":[22]}`,
	} {
		if w := do(t, h, http.MethodPost, "/ingest", p); w.Code != http.StatusOK {
			t.Fatalf("ingest status = %d", w.Code)
		}
	}

	w := do(t, h, http.MethodGet, "/data/boiler-room/stats.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		State   string `json:"state"`
		Sensors []struct {
			Sensor string  `json:"sensor"`
			Count  int64   `json:"count"`
			Min    float64 `json:"min"`
			Max    float64 `json:"max"`
			Avg    float64 `json:"avg"`
		} `json:"sensors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.State != "ok" || len(resp.Sensors) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	s := resp.Sensors[0]
	// Stats use unrounded values.
	if s.Sensor != "Ambient_C" || s.Count != 2 || s.Min != 20 || s.Max != 22 || s.Avg != 21 {
		t.Errorf("sensor summary = %+v", s)
	}
}

func TestArchiveDisabled(t *testing.T) {
	h := testServer(t).Handler()

	w := do(t, h, http.MethodGet, "/data/boiler-room/archive.json", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body := decode(t, w); body["error"] != "archive disabled" {
		t.Errorf("body = %v", body)
	}
}

func TestMethodRouting(t *testing.T) {
	h := testServer(t).Handler()

	if w := do(t, h, http.MethodGet, "/ingest", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /ingest status = %d, want 405", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/health", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health status = %d, want 405", w.Code)
	}
}
