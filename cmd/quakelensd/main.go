// Command quakelensd runs the quakelens analytics engine.
//
// It loads an optional YAML config and an optional JSON-lines event
// dump, then either drops into an interactive console (when stdin is a
// terminal) or prints a one-shot summary of the catalog.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/quakelens/quakelens/internal/analytics"
	"github.com/quakelens/quakelens/internal/config"
	"github.com/quakelens/quakelens/internal/console"
	"github.com/quakelens/quakelens/internal/feed"
	"github.com/quakelens/quakelens/internal/logging"
	"github.com/quakelens/quakelens/internal/query"
	"github.com/quakelens/quakelens/internal/retention"
	"github.com/quakelens/quakelens/internal/snapshot"
)

var version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "path to config.yaml")
		eventsPath  = flag.String("events", "", "JSON-lines event dump to load at startup")
		exportPath  = flag.String("export", "", "write a Parquet snapshot to this path and exit")
		logLevel    = flag.String("log-level", "", "override log level (debug, info, warn, error)")
		jsonLogs    = flag.Bool("json-logs", false, "log as JSON")
		noConsole   = flag.Bool("no-console", false, "never start the interactive console")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("quakelensd", version)
		return
	}

	cfg := loadConfig(*configPath)
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logging.Init(logging.ParseLevel(cfg.Logging.Level), *jsonLogs || cfg.Logging.JSON)
	log := logging.Component("main")
	log.Info("starting quakelensd", "version", version)

	eng := analytics.New(analytics.Options{
		CompletenessMagnitude: cfg.Engine.CompletenessMagnitude,
		RefitInterval:         cfg.Engine.RefitInterval,
	})
	ret := retention.New(retention.Policy{
		MaxEvents: cfg.Retention.MaxEvents,
		MaxAge:    cfg.Retention.MaxAge(),
	})

	if *eventsPath != "" {
		events, err := feed.LoadFile(*eventsPath)
		if err != nil {
			log.Error("load events failed", "error", err)
			os.Exit(1)
		}
		if err := eng.AddEvents(events); err != nil {
			log.Error("ingest failed", "error", err)
			os.Exit(1)
		}
		if _, err := ret.Check(eng); err != nil {
			log.Error("retention check failed", "error", err)
			os.Exit(1)
		}
	}

	if *exportPath != "" {
		tab := eng.TableSnapshot()
		opts := snapshot.Options{Compression: snapshot.ParseCompressionType(cfg.Snapshot.Compression)}
		if err := snapshot.Export(*exportPath, tab, opts); err != nil {
			log.Error("export failed", "error", err)
			os.Exit(1)
		}
		log.Info("snapshot written", "path", *exportPath, "events", tab.Len())
		return
	}

	qs, err := query.New(query.Config{
		MemoryLimit: cfg.Query.MemoryLimit,
		MaxRows:     cfg.Query.MaxRows,
	})
	if err != nil {
		log.Error("query service failed", "error", err)
		os.Exit(1)
	}
	defer qs.Close()

	if !*noConsole && term.IsTerminal(int(os.Stdin.Fd())) {
		if cfg.Retention.CheckInterval() > 0 {
			go retentionLoop(eng, ret, cfg.Retention.CheckInterval())
		}
		c := console.New(eng, ret, qs, cfg.Snapshot.Dir, cfg.Snapshot.Compression)
		c.Run()
		return
	}

	printSummary(eng)
}

// loadConfig reads the config file, falling back to defaults when no
// path is given.
func loadConfig(path string) *config.Config {
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	return cfg
}

// retentionLoop periodically applies the retention policy while the
// console is running.
func retentionLoop(eng *analytics.Engine, ret *retention.Controller, interval time.Duration) {
	log := logging.Component("retention-loop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if _, err := ret.Check(eng); err != nil {
			log.Error("retention check failed", "error", err)
		}
	}
}

// printSummary dumps the headline statistics for non-interactive runs.
func printSummary(eng *analytics.Engine) {
	fmt.Println("events:", eng.EventCount())

	if b, err := eng.BValue(); err == nil {
		fmt.Printf("b-value: %.3f\n", b)
	}
	if m, err := eng.RiskMetrics(); err == nil {
		fmt.Printf("P(M>=5, 30d): %.4f\n", m.ProbM5In30Days)
		fmt.Printf("P(M>=6, 365d): %.4f\n", m.ProbM6In365Days)
		fmt.Printf("P(M>=7, 365d): %.4f\n", m.ProbM7In365Days)
		fmt.Printf("total energy: %.3e J\n", m.TotalEnergyJoules)
	}
	for _, r := range eng.RegionalSummary(5) {
		fmt.Printf("%-40s %5d events, mean mag %.2f\n", r.Region, r.EventCount, r.AvgMagnitude)
	}
}
