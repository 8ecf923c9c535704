// Command submitdate shows or sets the contest open/close window.
// Without flags it prints the current window; -s and -S set the open
// and close dates. Dates are RFC 3339 with an explicit UTC offset.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ajkula/GoSubmit/adapter/outbound/lockfs"
	"github.com/ajkula/GoSubmit/adapter/outbound/logging"
	"github.com/ajkula/GoSubmit/adapter/outbound/machineid"
	"github.com/ajkula/GoSubmit/adapter/outbound/storage"
	"github.com/ajkula/GoSubmit/config"
	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
	"github.com/ajkula/GoSubmit/domain/service"
)

func main() {
	var (
		configPath string
		openDate   string
		closeDate  string
	)

	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&openDate, "s", "", "set the contest open date (RFC 3339, e.g. 2026-01-01T00:00:00+00:00)")
	flag.StringVar(&closeDate, "S", "", "set the contest close date (RFC 3339)")
	flag.Parse()

	cfg := loadConfig(configPath)
	logger := logging.NewSlogAdapter(cfg)

	err := run(cfg, logger, openDate, closeDate)

	logger.Shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func run(cfg *config.Config, logger outbound.Logger, openDate, closeDate string) error {
	broker := lockfs.NewFlockBroker(machineid.NewHardwareMachineID(), logger)

	windows, err := storage.NewWindowRepository(
		cfg.StateFilePath(), cfg.StateLockPath(), broker, logger, cfg.LockTimeout())
	if err != nil {
		return err
	}

	svc := service.NewWindowService(windows, logger)

	openAt, err := parseDate(openDate)
	if err != nil {
		return fmt.Errorf("invalid open date: %w", err)
	}
	closeAt, err := parseDate(closeDate)
	if err != nil {
		return fmt.Errorf("invalid close date: %w", err)
	}

	var window *model.ContestWindow
	if openAt != nil || closeAt != nil {
		window, err = svc.SetWindow(context.Background(), openAt, closeAt)
		if err != nil {
			return err
		}
		fmt.Printf("Notice: set contest window\n")
	} else {
		window, err = svc.GetWindow()
		if err != nil {
			return err
		}
	}

	fmt.Printf("Notice: contest open: %s close: %s (open now: %v)\n",
		formatDate(window.OpenAt), formatDate(window.CloseAt), window.IsOpen(time.Now().UTC()))
	return nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "(not set)"
	}
	return t.Format(time.RFC3339)
}
