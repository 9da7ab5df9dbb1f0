// Package validation provides centralized input validation for the
// heat-map service.
//
// Device IDs become file names under the storage directory, so the rules
// here exist to keep a hostile id from escaping the data directory or
// producing an unusable file name.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/AJ-SIM/heat-map/internal/errors"
)

// DeviceIDRules defines the validation rules for device identifiers.
type DeviceIDRules struct {
	MinLength int
	MaxLength int
	AllowDots bool
}

// DefaultDeviceIDRules returns the default rules for device IDs.
// Dots are allowed so IP-like and firmware-style ids (e.g.
// "heatMap-esp32-01", "192.168.1.20") both pass.
func DefaultDeviceIDRules() DeviceIDRules {
	return DeviceIDRules{
		MinLength: 1,
		MaxLength: 128,
		AllowDots: true,
	}
}

// ValidateDeviceID validates a device identifier with the default rules.
func ValidateDeviceID(id string) error {
	return ValidateDeviceIDWithRules(id, DefaultDeviceIDRules())
}

// ValidateDeviceIDWithRules validates a device identifier according to the
// given rules.
func ValidateDeviceIDWithRules(id string, rules DeviceIDRules) error {
	if len(id) < rules.MinLength {
		return errors.Wrapf(errors.ErrInvalidDevice,
			"device id too short: minimum %d characters required", rules.MinLength)
	}
	if len(id) > rules.MaxLength {
		return errors.Wrapf(errors.ErrInvalidDevice,
			"device id too long: maximum %d characters allowed", rules.MaxLength)
	}

	if id == "." || id == ".." {
		return errors.Wrap(errors.ErrInvalidDevice, "device id cannot be '.' or '..'")
	}

	if strings.HasPrefix(id, ".") {
		return errors.Wrap(errors.ErrInvalidDevice, "device id cannot start with '.'")
	}

	for i, r := range id {
		if r < 32 || r == 127 {
			return errors.Wrapf(errors.ErrInvalidDevice,
				"device id cannot contain control characters at position %d", i)
		}
		if r == '/' || r == '\\' {
			return errors.Wrapf(errors.ErrInvalidDevice,
				"device id cannot contain path separators at position %d", i)
		}
		if !isAllowedIDChar(r, rules) {
			return errors.Wrapf(errors.ErrInvalidDevice,
				"invalid character %q at position %d", r, i)
		}
	}

	return nil
}

func isAllowedIDChar(r rune, rules DeviceIDRules) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '.':
		return rules.AllowDots
	case '-', '_':
		return true
	}
	return false
}

// ValidateSensorNames checks that every supplied sensor name is printable
// and short enough to serve as a CSV column label. Names are only a hint,
// so an empty slice is fine; individual names must still be sane.
func ValidateSensorNames(names []string) error {
	for i, name := range names {
		if name == "" {
			return fmt.Errorf("sensor name %d is empty", i)
		}
		if len(name) > 64 {
			return fmt.Errorf("sensor name %d too long: maximum 64 characters", i)
		}
		for _, r := range name {
			if r < 32 || r == 127 {
				return fmt.Errorf("sensor name %d contains control characters", i)
			}
			if r == ',' || r == '\n' || r == '\r' {
				return fmt.Errorf("sensor name %d contains CSV delimiters", i)
			}
		}
	}
	return nil
}
