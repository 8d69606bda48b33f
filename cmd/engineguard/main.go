package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"engineguard/internal/config"
	"engineguard/internal/shared/version"
)

var (
	configPath  = flag.String("config", "./engineguard.toml", "Path to config file")
	once        = flag.Bool("once", false, "Run single scan and exit")
	sarifPath   = flag.String("sarif", "", "Write a SARIF report to this path (overrides config)")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("engineguard %s\n", version.Version)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./engineguard.toml" {
			cfg, err = config.Load("./engineguard.example.toml")
		}
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	if *sarifPath != "" {
		cfg.Output.SARIF = *sarifPath
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if flag.NArg() > 0 {
		cfg.Scan.Roots = flag.Args()
	}

	// Scanned file paths are absolute; engine ownership checks need the
	// engines root in the same form.
	if !filepath.IsAbs(cfg.Engines.Path) {
		cwd, _ := os.Getwd()
		cfg.Engines.Path = filepath.Join(cwd, cfg.Engines.Path)
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	violations, err := app.RunScan()
	if err != nil {
		slog.Error("scan failed", "error", err)
		os.Exit(1)
	}

	if *once {
		if len(violations) > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := app.StartWatcher(); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	select {}
}
