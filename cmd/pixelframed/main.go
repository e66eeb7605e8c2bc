// Command pixelframed is the playback daemon: it owns the panel, plays the
// asset directory, and serves the HTTP control API.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"pixelframe/internal/config"
	"pixelframe/internal/daemon"
	"pixelframe/internal/logging"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configFlag); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	if err := logging.CleanupOldLogs(cfg.Paths.LogDir, cfg.Logging.RetentionDays, logger); err != nil {
		logger.Warn("log cleanup failed", "error", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Stop()

	<-ctx.Done()
	logger.Info("pixelframed shutting down")
	return nil
}
