// Package config provides configuration defaults for the heat-map
// service.
//
// This package defines all configurable constants with documented
// defaults. Users can override these values via heatmap.yaml or CLI
// flags.
package config

import "time"

// =============================================================================
// Network Defaults
// =============================================================================

const (
	// DefaultListenAddress is the default server listen address.
	// Override via config: listen
	DefaultListenAddress = "0.0.0.0:8000"

	// DefaultMaxBodyBytes limits ingest request bodies to prevent OOM.
	// A reading with a few dozen sensors fits in well under 1 MiB.
	DefaultMaxBodyBytes = 1 * 1024 * 1024

	// DefaultReadHeaderTimeout bounds how long a client may take to send
	// request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
)

// =============================================================================
// Storage Defaults
// =============================================================================

const (
	// DefaultDataDir is the base directory for per-device series files.
	// Override via config: data_dir or the DATA_DIR environment variable.
	DefaultDataDir = "data"
)

// =============================================================================
// Display Defaults
// =============================================================================

const (
	// DefaultWindowMins is the trailing display window when a viewer
	// does not ask for one.
	// Override via config: display.window_mins
	DefaultWindowMins = 15

	// MaxWindowMins caps the display window a viewer may request.
	MaxWindowMins = 240
)

// =============================================================================
// Archive Defaults
// =============================================================================

const (
	// DefaultArchiveDir is where Parquet snapshots of rotated-out
	// series are kept when archiving is enabled.
	// Override via config: archive.dir
	DefaultArchiveDir = "archive"

	// DefaultArchiveRetention is how long snapshots are kept before the
	// retention sweep prunes them.
	// Override via config: archive.retention
	DefaultArchiveRetention = 90 * 24 * time.Hour

	// DefaultRetentionInterval is how often the retention sweep runs.
	DefaultRetentionInterval = time.Hour

	// DefaultArchiveCompression is the Parquet codec for snapshots.
	// Override via config: archive.compression
	DefaultArchiveCompression = "zstd"
)

// =============================================================================
// Shutdown Defaults
// =============================================================================

const (
	// DefaultShutdownTimeout is how long to wait for in-flight requests
	// during shutdown. This follows the Kubernetes convention
	// (terminationGracePeriodSeconds = 30s).
	DefaultShutdownTimeout = 30 * time.Second
)
