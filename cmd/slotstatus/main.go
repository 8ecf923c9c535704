// Command slotstatus annotates a user's submission slot with a status
// comment, or lists every slot that holds an accepted submission.
//
//	slotstatus <username> <slot> <comment>
//	slotstatus -loaded
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/ajkula/GoSubmit/adapter/outbound/lockfs"
	"github.com/ajkula/GoSubmit/adapter/outbound/logging"
	"github.com/ajkula/GoSubmit/adapter/outbound/machineid"
	"github.com/ajkula/GoSubmit/adapter/outbound/storage"
	"github.com/ajkula/GoSubmit/config"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
	"github.com/ajkula/GoSubmit/domain/service"
)

func main() {
	var (
		configPath string
		listLoaded bool
	)

	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&listLoaded, "loaded", false, "list every slot holding an accepted submission")
	flag.Parse()

	cfg := loadConfig(configPath)
	logger := logging.NewSlogAdapter(cfg)

	err := run(cfg, logger, listLoaded, flag.Args())

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

func run(cfg *config.Config, logger outbound.Logger, listLoaded bool, args []string) error {
	broker := lockfs.NewFlockBroker(machineid.NewHardwareMachineID(), logger)

	slots, err := storage.NewSlotRepository(
		cfg.SlotsDirPath(), broker, logger, cfg.LockTimeout(), cfg.Slots.Count, cfg.Slots.MaxSubmissionBytes)
	if err != nil {
		return err
	}

	svc := service.NewSlotService(slots, logger, cfg.Slots.Count)

	if listLoaded {
		return svc.ListLoadedSlots(func(username string, slotNum int) error {
			fmt.Printf("%s %d\n", username, slotNum)
			return nil
		})
	}

	if len(args) != 3 {
		return fmt.Errorf("usage: slotstatus <username> <slot> <comment>")
	}

	slotNum, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid slot number %q: %w", args[1], err)
	}

	if err := svc.SetStatus(context.Background(), args[0], slotNum, args[2]); err != nil {
		return err
	}

	fmt.Printf("Notice: set status of %s slot %d\n", args[0], slotNum)
	return nil
}
