package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AJ-SIM/heat-map/config"
	"github.com/AJ-SIM/heat-map/internal/archive"
	"github.com/AJ-SIM/heat-map/internal/errors"
	"github.com/AJ-SIM/heat-map/internal/ingest"
	"github.com/AJ-SIM/heat-map/internal/logging"
	"github.com/AJ-SIM/heat-map/internal/schema"
	"github.com/AJ-SIM/heat-map/internal/series"
	"github.com/AJ-SIM/heat-map/internal/stats"
	"github.com/AJ-SIM/heat-map/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "app": AppName})
}

// =============================================================================
// Ingest
// =============================================================================

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var payload ingest.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad payload"})
		return
	}

	reading, err := ingest.Normalize(&payload)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad payload"})
		return
	}

	ctx := logging.ContextWithDevice(r.Context(), reading.Device)

	ack, err := s.store.Append(reading)
	if err != nil {
		reqLog(ctx).Error("ingest failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "storage failure"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "n": ack.Sensors})
}

// =============================================================================
// Raw file endpoints
// =============================================================================

func (s *Server) handleCleanCSV(w http.ResponseWriter, r *http.Request) {
	s.serveSeries(w, r, schema.KindClean)
}

func (s *Server) handleRawCSV(w http.ResponseWriter, r *http.Request) {
	s.serveSeries(w, r, schema.KindRaw)
}

// serveSeries serves a whole series file. An invalid device id can never
// have a file, so it gets the same not-found response as an unknown one.
func (s *Server) serveSeries(w http.ResponseWriter, r *http.Request, kind schema.Kind) {
	device := r.PathValue("device")
	if validation.ValidateDeviceID(device) != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	data, err := s.store.ReadSeries(device, kind)
	if err != nil {
		if errors.IsNotFound(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		ctx := logging.ContextWithDevice(r.Context(), device)
		reqLog(ctx).Error("serve series failed", "kind", kind.String(), "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Write(data)
}

func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	device := r.PathValue("device")
	if validation.ValidateDeviceID(device) != nil {
		writeJSON(w, http.StatusOK, map[string]any{"names": nil})
		return
	}

	names, err := s.store.ReadNames(device)
	if err != nil {
		if errors.IsNotFound(err) {
			writeJSON(w, http.StatusOK, map[string]any{"names": nil})
			return
		}
		ctx := logging.ContextWithDevice(r.Context(), device)
		reqLog(ctx).Error("serve names failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"names": names})
}

// =============================================================================
// Reconstructed display endpoints
// =============================================================================

// windowResponse is the display-ready series for a viewer.
type windowResponse struct {
	State   series.State `json:"state"`
	TimeS   []float64    `json:"time_s,omitempty"`
	Columns []string     `json:"columns,omitempty"`
	Values  [][]*float64 `json:"values,omitempty"`
}

// reconstruct runs the read path for a display endpoint. It returns nil
// after writing the response when the series file is absent.
func (s *Server) reconstruct(w http.ResponseWriter, r *http.Request, round bool) *series.Display {
	device := r.PathValue("device")
	if validation.ValidateDeviceID(device) != nil {
		w.WriteHeader(http.StatusNotFound)
		return nil
	}
	ctx := logging.ContextWithDevice(r.Context(), device)

	data, err := s.store.ReadSeries(device, schema.KindClean)
	if err != nil {
		if errors.IsNotFound(err) {
			w.WriteHeader(http.StatusNotFound)
			return nil
		}
		reqLog(ctx).Error("read series failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return nil
	}

	table, err := series.Parse(data)
	if err != nil {
		reqLog(ctx).Error("parse series failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return nil
	}

	// The name overlay is optional; absence just means positional names.
	names, err := s.store.ReadNames(device)
	if err != nil && !errors.IsNotFound(err) {
		reqLog(ctx).Warn("read names failed", "error", err)
		names = nil
	}

	return series.Reconstruct(table, series.Options{
		Kind:         schema.KindClean,
		WindowMins:   s.windowMins(r),
		TrimReset:    trimResetParam(r),
		Names:        names,
		RoundDisplay: round,
	})
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	d := s.reconstruct(w, r, true)
	if d == nil {
		return
	}

	writeJSON(w, http.StatusOK, windowResponse{
		State:   d.State,
		TimeS:   d.TimeS,
		Columns: d.Columns,
		Values:  d.Values,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	d := s.reconstruct(w, r, false)
	if d == nil {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":   d.State,
		"sensors": stats.Summarize(d),
	})
}

// windowMins parses the mins query parameter, clamped to the allowed
// range, defaulting to the configured window.
func (s *Server) windowMins(r *http.Request) int {
	raw := r.URL.Query().Get("mins")
	if raw == "" {
		return s.cfg.DefaultWindowMins
	}
	mins, err := strconv.Atoi(raw)
	if err != nil || mins < 1 {
		return s.cfg.DefaultWindowMins
	}
	if mins > config.MaxWindowMins {
		return config.MaxWindowMins
	}
	return mins
}

// trimResetParam parses the trimReset query parameter. Trimming is on
// unless explicitly disabled, matching the viewer default.
func trimResetParam(r *http.Request) bool {
	switch r.URL.Query().Get("trimReset") {
	case "0", "false", "no":
		return false
	default:
		return true
	}
}

// =============================================================================
// Archive
// =============================================================================

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "archive disabled"})
		return
	}

	device := r.PathValue("device")
	if validation.ValidateDeviceID(device) != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	from, _ := strconv.ParseInt(q.Get("from"), 10, 64)
	to, _ := strconv.ParseInt(q.Get("to"), 10, 64)

	kind := schema.KindClean
	if q.Get("kind") == "raw" {
		kind = schema.KindRaw
	}

	ctx := logging.ContextWithDevice(r.Context(), device)
	points, err := s.archive.Query(ctx, device, kind, from, to)
	if err != nil {
		reqLog(ctx).Error("archive query failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if points == nil {
		points = []archive.Point{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device": device,
		"kind":   kind.String(),
		"points": points,
	})
}
