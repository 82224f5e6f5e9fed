// cmd/promptharvest/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/promptharvest/promptharvest/internal/browser"
	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/dom"
	"github.com/promptharvest/promptharvest/internal/history"
	"github.com/promptharvest/promptharvest/internal/monitoring"
	"github.com/promptharvest/promptharvest/internal/output"
	"github.com/promptharvest/promptharvest/internal/scan"
	"github.com/promptharvest/promptharvest/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: run requires a configuration file")
			os.Exit(1)
		}
		if err := runScan(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: validate requires a configuration file")
			os.Exit(1)
		}
		if err := validateConfig(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration file '%s' is valid\n", os.Args[2])
	case "template":
		if err := printTemplate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version":
		fmt.Printf("promptharvest %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runScan(configFile string) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger := utils.NewLoggerWithLevel(cfg.LogLevel)
	logger.WithFields(map[string]interface{}{
		"name":    cfg.Name,
		"gallery": cfg.GalleryURL,
		"mode":    string(cfg.Duplicates.Mode),
	}).Info("starting scan")

	log, err := history.Open(cfg.History.LogPath, logger)
	if err != nil {
		return fmt.Errorf("failed to load download log: %w", err)
	}

	var metrics *monitoring.Metrics
	var monitor *monitoring.Server
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewMetrics(prometheus.DefaultRegisterer)
		metrics.RecordLogLoad(log.LoadDuration().Seconds(), log.Len())
		monitor = monitoring.NewServer(cfg.Monitoring.ListenAddress, prometheus.DefaultGatherer, logger)
		monitor.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := monitor.Shutdown(shutdownCtx); err != nil {
				logger.Warnf("monitoring shutdown failed: %v", err)
			}
		}()
	}

	page, err := browser.NewChromePage(&cfg.Browser)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer page.Close()

	nav := dom.NewNavigator(page, logger, cfg.Extraction.ElementTimeout)
	gallery := scan.NewPageGallery(page, nav, cfg, logger)
	scanner := scan.NewScanner(cfg, gallery, nav, log, metrics, logger)
	if monitor != nil {
		scanner.SetItemNotifier(monitor.NoteItem)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		logger.Info("stop requested, finishing current item")
		scanner.RequestStop()
	}()

	summary, err := scanner.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if cfg.History.ArchivePath != "" {
		if err := archiveLog(cfg.History.ArchivePath, log); err != nil {
			logger.Warnf("failed to update archive: %v", err)
		}
	}

	if cfg.Report.Format != "" {
		manager, err := output.NewManager(&cfg.Report)
		if err != nil {
			return fmt.Errorf("failed to configure report: %w", err)
		}
		if err := manager.Write(summary); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.WithField("path", cfg.Report.Path).Info("report written")
	}

	fmt.Printf("Scanned %d items: %d new, %d duplicates, %d failures (%s)\n",
		summary.ItemsScanned, summary.NewItems, summary.Duplicates,
		summary.Failures, summary.StoppedBy)
	return nil
}

// archiveLog mirrors the loaded log into the SQLite archive.
func archiveLog(path string, log *history.Log) error {
	archive, err := history.OpenArchive(path)
	if err != nil {
		return err
	}
	defer archive.Close()
	return archive.StoreAll(log.Records())
}

func validateConfig(configFile string) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

func printTemplate() error {
	data, err := yaml.Marshal(config.GenerateTemplate())
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func printUsage() {
	fmt.Println(`promptharvest - AI video gallery metadata harvester

Usage:
  promptharvest run <config.yaml>       Run a gallery scan
  promptharvest validate <config.yaml>  Validate a configuration file
  promptharvest template                Print a configuration template
  promptharvest version                 Show version information
  promptharvest help                    Show this help`)
}
