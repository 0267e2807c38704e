package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rdelgado/meraki-snipeit-sync/internal/api"
	"github.com/rdelgado/meraki-snipeit-sync/internal/config"
	"github.com/rdelgado/meraki-snipeit-sync/internal/logging"
	"github.com/rdelgado/meraki-snipeit-sync/internal/meraki"
	"github.com/rdelgado/meraki-snipeit-sync/internal/models"
	"github.com/rdelgado/meraki-snipeit-sync/internal/scheduler"
	"github.com/rdelgado/meraki-snipeit-sync/internal/snipeit"
	msync "github.com/rdelgado/meraki-snipeit-sync/internal/sync"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("merakisync %s (commit: %s, built: %s)\n", version, commit, date)
			os.Exit(0)
		}
	}

	var (
		configFile = flag.String("config", "", "Path to config file (YAML)")
		once       = flag.Bool("once", false, "Run the sync once and exit")
		interval   = flag.Duration("interval", 0, "Interval between sync runs (overrides config)")
		cronSpec   = flag.String("cron", "", "Cron expression for the schedule (overrides config)")
		listen     = flag.String("listen", "", "HTTP listen address for the status server")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *interval > 0 {
		cfg.Scheduler.Interval = config.Duration(*interval)
		cfg.Scheduler.Cron = ""
	}
	if *cronSpec != "" {
		cfg.Scheduler.Cron = *cronSpec
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	logger.Info().Str("version", version).Msg("starting merakisync")

	runs := models.NewRunStore()
	source := meraki.NewClient(cfg.Meraki, logger)
	snipe := snipeit.NewClient(cfg.SnipeIT, logger)
	runner := msync.NewRunner(source, snipe, runs, cfg.Sync, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One run at a time: scheduled ticks and manual triggers share the lock,
	// and whoever finds it held skips instead of queueing.
	var runMu sync.Mutex

	server := &api.Server{
		Runs: runs,
		TriggerSync: func() bool {
			if !runMu.TryLock() {
				return false
			}
			go func() {
				defer runMu.Unlock()
				if _, err := runner.Run(ctx, "manual"); err != nil {
					logger.Error().Err(err).Msg("manual sync run failed")
				}
			}()
			return true
		},
	}
	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.Listen).Msg("status server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("status server failed")
		}
	}()

	if *once {
		runMu.Lock()
		_, runErr := runner.Run(ctx, "once")
		runMu.Unlock()
		shutdownServer(httpSrv)
		if runErr != nil {
			logger.Error().Err(runErr).Msg("sync run failed")
			os.Exit(1)
		}
		return
	}

	sched := scheduler.New(logger)
	spec := cfg.Scheduler.Cron
	if spec == "" {
		spec = scheduler.SpecFromInterval(cfg.Scheduler.Interval.Std())
	}
	err = sched.Schedule(spec, func() {
		if !runMu.TryLock() {
			logger.Warn().Msg("previous sync run still in progress, skipping this tick")
			return
		}
		defer runMu.Unlock()
		if _, err := runner.Run(ctx, "scheduled"); err != nil {
			logger.Error().Err(err).Msg("scheduled sync run failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("scheduler setup failed")
		os.Exit(1)
	}
	sched.Start()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	sched.Stop()
	shutdownServer(httpSrv)
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
