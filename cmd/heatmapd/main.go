// heatmapd is the heat-map telemetry ingestion and serving daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AJ-SIM/heat-map/config"
	"github.com/AJ-SIM/heat-map/internal/archive"
	"github.com/AJ-SIM/heat-map/internal/loader"
	"github.com/AJ-SIM/heat-map/internal/logging"
	"github.com/AJ-SIM/heat-map/internal/server"
	"github.com/AJ-SIM/heat-map/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "heatmap.yaml", "config file path")
	listen := flag.String("listen", "", "listen address (overrides config)")
	dataDir := flag.String("data-dir", "", "storage directory (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	jsonLogs := flag.Bool("json-logs", false, "log as JSON")
	enableArchive := flag.Bool("archive", false, "enable Parquet snapshots of rotated series")
	flag.Parse()

	// Load config
	cfg, err := loader.Load(*cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = loader.DefaultConfig()
		} else {
			logging.Init(slog.LevelInfo, *jsonLogs)
			logging.Error("load config failed", "path", *cfgPath, "error", err)
			os.Exit(1)
		}
	}

	// CLI overrides
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *jsonLogs {
		cfg.Log.JSON = true
	}
	if *enableArchive {
		cfg.Archive.Enabled = true
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.JSON)
	log := logging.Component("heatmapd")
	log.Info("starting", "version", Version, "data_dir", cfg.DataDir)

	// =========================================================================
	// Archive tier (optional)
	// =========================================================================

	var arc *archive.Service
	if cfg.Archive.Enabled {
		arc, err = archive.New(archive.Config{
			Dir:         cfg.Archive.Dir,
			Retention:   cfg.Archive.Retention.Duration(),
			Compression: cfg.Archive.Compression,
		})
		if err != nil {
			log.Error("create archive failed", "error", err)
			os.Exit(1)
		}
		defer arc.Close()
		log.Info("archive enabled",
			"dir", cfg.Archive.Dir, "retention", cfg.Archive.Retention.Duration())
	}

	// =========================================================================
	// Storage engine
	// =========================================================================

	var opts []storage.Option
	if arc != nil {
		opts = append(opts, storage.WithArchiver(arc))
	}

	store, err := storage.New(cfg.DataDir, opts...)
	if err != nil {
		log.Error("create store failed", "error", err)
		os.Exit(1)
	}

	// =========================================================================
	// Server and signal handling
	// =========================================================================

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if arc != nil {
		go arc.RetentionLoop(ctx, config.DefaultRetentionInterval)
	}

	srv := server.New(&server.Config{
		Store:             store,
		Archive:           arc,
		Listen:            cfg.Listen,
		DefaultWindowMins: cfg.Display.WindowMins,
	})

	if err := srv.Run(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
