// Package ingest normalizes inbound sensor readings before they reach
// storage.
//
// Validation here is a pure transform: malformed payloads are rejected
// with no side effects, and everything filesystem-shaped happens
// downstream in the storage writer.
package ingest

import (
	"math"

	"github.com/AJ-SIM/heat-map/internal/errors"
	"github.com/AJ-SIM/heat-map/internal/validation"
)

// DefaultDevice is used when a payload does not name its device.
const DefaultDevice = "unknown"

// Payload is the wire shape of an ingest request.
//
// Devices report uptime-based timestamps in milliseconds; temps carries
// one calibrated value per sensor and raw optionally carries the
// sensor-native values (which may include out-of-range sentinel readings
// such as 85 or -127). Individual values may be null when a sensor
// failed to read.
type Payload struct {
	Device string     `json:"device"`
	Ts     *float64   `json:"ts"`
	Names  []string   `json:"names"`
	Temps  []*float64 `json:"temps"`
	Raw    []*float64 `json:"raw"`
}

// Reading is a normalized, validated payload ready for storage.
type Reading struct {
	Device      string
	TimestampMs int64
	TimestampS  int64

	// Names is a naming hint only; the storage writer decides whether
	// it is usable for the header and metadata.
	Names []string

	Temps []*float64
	Raw   []*float64
}

// Sensors returns the sensor count N of the reading.
func (r *Reading) Sensors() int {
	return len(r.Temps)
}

// HasRawRow reports whether the raw array is usable for a raw series
// row. Raw rows are only appended when the raw length equals the sensor
// count; absence of raw data never blocks clean writes.
func (r *Reading) HasRawRow() bool {
	return len(r.Raw) == len(r.Temps)
}

// Normalize validates a payload and produces a Reading.
//
// It fails with a validation error when ts is absent or temps is
// absent/empty. The device id defaults to DefaultDevice when missing and
// must pass the device id rules since it becomes a file path component.
// An unusable names hint (bad length is decided downstream; bad content
// is decided here) is dropped rather than rejected.
func Normalize(p *Payload) (*Reading, error) {
	if p.Ts == nil {
		return nil, errors.NewMissingField("ts")
	}
	if len(p.Temps) == 0 {
		return nil, errors.NewMissingField("temps")
	}

	device := p.Device
	if device == "" {
		device = DefaultDevice
	}
	if err := validation.ValidateDeviceID(device); err != nil {
		return nil, err
	}

	names := p.Names
	if err := validation.ValidateSensorNames(names); err != nil {
		// A broken name would corrupt the CSV header; the hint is
		// optional, so drop it instead of failing the reading.
		names = nil
	}

	tsMs := int64(*p.Ts)
	tsS := int64(math.Floor(*p.Ts/1000.0 + 0.5))

	return &Reading{
		Device:      device,
		TimestampMs: tsMs,
		TimestampS:  tsS,
		Names:       names,
		Temps:       p.Temps,
		Raw:         p.Raw,
	}, nil
}
