package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quietweb/internal/agent"
	"quietweb/internal/blocker"
	"quietweb/internal/catalog"
	"quietweb/internal/config"
	"quietweb/internal/database"
	"quietweb/internal/notify"
	"quietweb/internal/session"
	"quietweb/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	once := flag.Bool("once", false, "Run a single sweep and exit")
	interval := flag.Duration("interval", 0, "Override the sweep interval")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *interval > 0 {
		cfg.SweepInterval = config.Duration(*interval)
	}

	log := logger.New(logger.Config{
		LogDir:     cfg.LogPath,
		EnableFile: cfg.LoggingEnabled,
		Level:      cfg.LogLevel,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	defer log.Close()

	store, err := database.NewStore(cfg.DatabasePath)
	if err != nil {
		log.Errorf("Failed to open database: %v", err)
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	cat := catalog.Load(log)
	reloader := blocker.NewExecReloader(cfg.ReloadCommand, cfg.StatusCommand)
	publisher := blocker.NewPublisher(cfg.SharedDir, reloader, log)
	coordinator := blocker.NewCoordinator(store, cat, publisher, log)
	scheduler := notify.NewScheduler(store, log)
	deliverer := notify.NewDeliverer(store, cfg.NotifyCommand, log)
	manager := session.NewManager(store, scheduler, coordinator, log)
	a := agent.New(cfg, store, manager, deliverer, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("Received signal %v, shutting down", sig)
		cancel()
	}()

	if *once {
		if err := a.Run(ctx); err != nil {
			log.Errorf("Sweep failed: %v", err)
			os.Exit(1)
		}
		return
	}

	log.Infof("Agent started, sweeping every %s", sweepInterval(cfg))
	if err := a.RunLoop(ctx); err != nil && err != context.Canceled {
		log.Errorf("Agent stopped: %v", err)
		os.Exit(1)
	}
	log.Info("Agent stopped")
}

// sweepInterval returns the effective loop interval
func sweepInterval(cfg *config.Settings) time.Duration {
	if cfg.SweepInterval > 0 {
		return cfg.SweepInterval.Std()
	}
	return time.Minute
}
