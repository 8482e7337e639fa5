package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/hostagent/internal/agent"
	"github.com/Schera-ole/hostagent/internal/collector"
	"github.com/Schera-ole/hostagent/internal/config"
	"github.com/Schera-ole/hostagent/internal/handler"
	"github.com/Schera-ole/hostagent/internal/logger"
	"github.com/Schera-ole/hostagent/internal/migration"
	"github.com/Schera-ole/hostagent/internal/rate"
	"github.com/Schera-ole/hostagent/internal/repository"
)

const (
	connectTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	agentConfig, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	log, err := logger.New(agentConfig.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	hostname, err := agentConfig.ResolveHostname()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, agentConfig, log)
	if err != nil {
		log.Errorw("store unavailable", "error", err)
		return err
	}
	defer store.Close()

	tracker := rate.NewTracker()
	registry, err := collector.NewRegistry(agentConfig, tracker, log)
	if err != nil {
		return err
	}
	defer registry.Close()

	writer := repository.NewWriter(store, agentConfig.Write, log)
	scheduler := agent.NewScheduler(registry.Collectors(), tracker, writer, agent.Settings{
		Hostname:       hostname,
		Interval:       agentConfig.Interval.Duration(),
		CollectTimeout: agentConfig.CollectTimeout,
		StaleAfter:     agentConfig.StaleBaselineAge(),
	}, log)

	if agentConfig.HealthAddress != "" {
		server := &http.Server{
			Addr:              agentConfig.HealthAddress,
			Handler:           handler.Router(scheduler, store, agentConfig.Interval.Duration(), log),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Infow("health endpoint listening", "address", agentConfig.HealthAddress)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("health endpoint failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warnw("health endpoint shutdown failed", "error", err)
			}
		}()
	}

	log.Infow("agent started",
		"hostname", hostname,
		"interval", agentConfig.Interval.Duration(),
		"dry_run", agentConfig.DryRun,
	)
	if err := scheduler.Run(ctx); err != nil {
		return err
	}
	log.Info("Shutting down...")
	return nil
}

// openStore connects to the store, applying migrations when enabled. Dry runs
// keep samples in memory.
func openStore(ctx context.Context, agentConfig *config.AgentConfig, log *zap.SugaredLogger) (repository.Store, error) {
	if agentConfig.DryRun {
		log.Warn("dry run: samples are kept in memory and discarded on exit")
		return repository.NewMemStorage(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if agentConfig.Migrate {
		if err := migration.RunMigrations(connectCtx, agentConfig.DatabaseDSN, log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return repository.NewDBStorage(connectCtx, agentConfig.DatabaseDSN)
}
