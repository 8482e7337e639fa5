package collector

import (
	"database/sql"
	"fmt"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/Schera-ole/hostagent/internal/config"
	"github.com/Schera-ole/hostagent/internal/docker"
	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

// Registry holds the enabled collectors, fixed at startup, and the handles they share.
type Registry struct {
	collectors []Collector
	postgres   *sql.DB
	docker     *docker.Client
}

// NewRegistry builds the collectors enabled in cfg, in canonical kind order.
// A collector enabled without its endpoint is a configuration error.
func NewRegistry(cfg *config.AgentConfig, tracker *rate.Tracker, logger *zap.SugaredLogger) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kinds, err := cfg.EnabledKinds()
	if err != nil {
		return nil, err
	}

	r := &Registry{}
	for _, kind := range kinds {
		c, err := r.build(kind, cfg, tracker, logger)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.collectors = append(r.collectors, c)
		logger.Infow("collector enabled", "kind", kind)
	}
	return r, nil
}

func (r *Registry) build(kind models.Kind, cfg *config.AgentConfig, tracker *rate.Tracker, logger *zap.SugaredLogger) (Collector, error) {
	switch kind {
	case models.KindCPU:
		return NewCPUCollector(tracker), nil
	case models.KindLoadAverage:
		return NewLoadAverageCollector(), nil
	case models.KindMemory:
		return NewMemoryCollector(), nil
	case models.KindIO:
		return NewIOCollector(tracker, cfg.System.IOExcludePrefixes), nil
	case models.KindFilesystem:
		return NewFilesystemCollector(cfg.System.FSExcludeTypes, logger), nil
	case models.KindNetwork:
		return NewNetworkCollector(tracker), nil
	case models.KindNginx:
		return NewNginxCollector(tracker, &http.Client{Timeout: cfg.CollectTimeout}, cfg.Nginx.StatusURL), nil
	case models.KindPostgresDatabase:
		db, err := r.postgresDB(cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgresDatabaseCollector(tracker, db, cfg.Postgres.Database), nil
	case models.KindPostgresTables:
		db, err := r.postgresDB(cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgresTablesCollector(db), nil
	case models.KindDocker:
		client, err := docker.NewClient(cfg.Docker.Socket, cfg.CollectTimeout)
		if err != nil {
			return nil, err
		}
		r.docker = client
		return NewDockerCollector(tracker, client, logger), nil
	}
	return nil, fmt.Errorf("no collector for kind %q", kind)
}

// postgresDB opens the monitored database once for both postgres collectors.
// sql.Open does not connect, so an unreachable server surfaces as a collection error.
func (r *Registry) postgresDB(cfg *config.AgentConfig) (*sql.DB, error) {
	if r.postgres != nil {
		return r.postgres, nil
	}
	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open monitored database: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	r.postgres = db
	return db, nil
}

// Collectors returns the enabled collectors.
func (r *Registry) Collectors() []Collector {
	return r.collectors
}

// Close releases the handles to monitored services.
func (r *Registry) Close() error {
	if r.docker != nil {
		r.docker.Close()
	}
	if r.postgres != nil {
		return r.postgres.Close()
	}
	return nil
}
