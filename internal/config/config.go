// Package config loads and validates the agent configuration.
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	internalerrors "github.com/Schera-ole/hostagent/internal/errors"
	models "github.com/Schera-ole/hostagent/internal/model"
)

// AgentConfig is the validated configuration consumed by the agent core.
type AgentConfig struct {
	// Interval is the tick cadence
	Interval Seconds `yaml:"interval" env:"REPORT_INTERVAL" env-default:"60s"`

	// DatabaseDSN is the connection string of the store
	DatabaseDSN string `yaml:"database_url" env:"DATABASE_URL"`

	// Hostname overrides os.Hostname in every sample
	Hostname string `yaml:"hostname" env:"HOST"`

	// Collectors lists the enabled collectors by kind name
	Collectors []string `yaml:"collectors" env:"COLLECTORS" env-separator:"," env-default:"cpu,load_average,memory,io,filesystem,network"`

	// CollectTimeout bounds a single collector invocation
	CollectTimeout time.Duration `yaml:"collect_timeout" env:"COLLECT_TIMEOUT" env-default:"10s"`

	// StaleAfter is how long an unobserved rate baseline is kept; zero means StaleIntervals intervals
	StaleAfter time.Duration `yaml:"stale_after" env:"STALE_AFTER"`

	// Migrate applies the bundled schema migrations at startup
	Migrate bool `yaml:"migrate" env:"MIGRATE" env-default:"false"`

	// DryRun keeps samples in memory instead of writing them to the store
	DryRun bool `yaml:"dry_run" env:"DRY_RUN" env-default:"false"`

	// HealthAddress is the listen address of the health endpoint, empty disables it
	HealthAddress string `yaml:"health_address" env:"HEALTH_ADDRESS"`

	Write    WriteConfig    `yaml:"write"`
	System   SystemConfig   `yaml:"system"`
	Nginx    NginxConfig    `yaml:"nginx"`
	Postgres PostgresConfig `yaml:"postgres"`
	Docker   DockerConfig   `yaml:"docker"`
	Log      LogConfig      `yaml:"log"`
}

// Seconds is a duration that also accepts a bare integer number of seconds,
// so REPORT_INTERVAL=60 and REPORT_INTERVAL=1m are equivalent.
type Seconds time.Duration

// SetValue implements cleanenv.Setter.
func (s *Seconds) SetValue(value string) error {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		*s = Seconds(time.Duration(n) * time.Second)
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	*s = Seconds(d)
	return nil
}

// UnmarshalText lets YAML files use the same forms as the environment.
func (s *Seconds) UnmarshalText(text []byte) error {
	return s.SetValue(string(text))
}

func (s Seconds) Duration() time.Duration { return time.Duration(s) }

func (s Seconds) String() string { return time.Duration(s).String() }

// WriteConfig controls the batch writer retry budget.
type WriteConfig struct {
	Attempts       int           `yaml:"attempts" env:"WRITE_ATTEMPTS" env-default:"4"`
	Timeout        time.Duration `yaml:"timeout" env:"WRITE_TIMEOUT" env-default:"10s"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"INITIAL_BACKOFF" env-default:"1s"`
	MaxBackoff     time.Duration `yaml:"max_backoff" env:"MAX_BACKOFF" env-default:"10s"`
}

// SystemConfig filters OS entities.
type SystemConfig struct {
	IOExcludePrefixes []string `yaml:"io_exclude_prefixes" env:"IO_EXCLUDE_PREFIXES" env-separator:"," env-default:"loop,ram"`
	FSExcludeTypes    []string `yaml:"fs_exclude_types" env:"FS_EXCLUDE_TYPES" env-separator:"," env-default:"squashfs,devtmpfs,tmpfs,fuse,overlay"`
}

type NginxConfig struct {
	StatusURL string `yaml:"status_url" env:"NGINX_STATUS_ENDPOINT"`
}

type PostgresConfig struct {
	// DSN of the monitored instance, DatabaseDSN when empty
	DSN string `yaml:"dsn" env:"POSTGRES_MONITOR_DSN"`

	// Database is the datname looked up in pg_stat_database
	Database string `yaml:"database" env:"DATABASE_TO_MONITOR"`
}

type DockerConfig struct {
	Socket string `yaml:"socket" env:"DOCKER_SOCKET" env-default:"/var/run/docker.sock"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`

	// File enables rotated file output instead of stderr
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"7"`
}

// Load reads the configuration from an optional YAML file, the environment and
// command-line flags, in increasing order of precedence.
func Load(args []string) (*AgentConfig, error) {
	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	configPath := fs.String("c", os.Getenv("CONFIG"), "path to YAML config file")
	interval := fs.Duration("i", 0, "report interval")
	dsn := fs.String("d", "", "database dsn")
	dryRun := fs.Bool("dry-run", false, "keep samples in memory instead of writing them")
	migrate := fs.Bool("migrate", false, "apply schema migrations at startup")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	config := &AgentConfig{}
	var err error
	if *configPath != "" {
		err = cleanenv.ReadConfig(*configPath, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading configuration: %w", err)
	}

	if *interval > 0 {
		config.Interval = Seconds(*interval)
	}
	if *dsn != "" {
		config.DatabaseDSN = *dsn
	}
	if *dryRun {
		config.DryRun = true
	}
	if *migrate {
		config.Migrate = true
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks intervals, the store DSN and every enabled collector.
func (c *AgentConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("report interval must be positive, got %s", c.Interval)
	}
	if c.CollectTimeout <= 0 {
		return fmt.Errorf("collect timeout must be positive, got %s", c.CollectTimeout)
	}
	if c.Write.Attempts < 1 {
		return fmt.Errorf("write attempts must be at least 1, got %d", c.Write.Attempts)
	}
	if c.Write.Timeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %s", c.Write.Timeout)
	}
	if c.DatabaseDSN == "" && !c.DryRun {
		return fmt.Errorf("DATABASE_URL is not set: %w", internalerrors.ErrNotConfigured)
	}

	kinds, err := c.EnabledKinds()
	if err != nil {
		return err
	}
	for _, kind := range kinds {
		switch kind {
		case models.KindNginx:
			if c.Nginx.StatusURL == "" {
				return fmt.Errorf("nginx status endpoint is not set: %w", internalerrors.ErrNotConfigured)
			}
			if _, err := url.ParseRequestURI(c.Nginx.StatusURL); err != nil {
				return fmt.Errorf("invalid nginx status endpoint %q: %w", c.Nginx.StatusURL, err)
			}
		case models.KindPostgresDatabase, models.KindPostgresTables:
			if c.Postgres.Database == "" {
				return fmt.Errorf("database to monitor is not set: %w", internalerrors.ErrNotConfigured)
			}
			if c.PostgresDSN() == "" {
				return fmt.Errorf("postgres dsn to monitor is not set: %w", internalerrors.ErrNotConfigured)
			}
		case models.KindDocker:
			if c.Docker.Socket == "" {
				return fmt.Errorf("docker socket is not set: %w", internalerrors.ErrNotConfigured)
			}
		}
	}
	return nil
}

// EnabledKinds expands Collectors into kinds, deduplicated, in canonical order.
func (c *AgentConfig) EnabledKinds() ([]models.Kind, error) {
	enabled := make(map[models.Kind]bool)
	for _, name := range c.Collectors {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == PostgresCollector {
			enabled[models.KindPostgresDatabase] = true
			enabled[models.KindPostgresTables] = true
			continue
		}
		if _, ok := models.Tables[models.Kind(name)]; !ok {
			return nil, fmt.Errorf("%q: %w", name, internalerrors.ErrUnknownCollector)
		}
		enabled[models.Kind(name)] = true
	}

	var kinds []models.Kind
	for _, kind := range models.Kinds {
		if enabled[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

// PostgresDSN returns the DSN of the monitored Postgres instance.
func (c *AgentConfig) PostgresDSN() string {
	if c.Postgres.DSN != "" {
		return c.Postgres.DSN
	}
	return c.DatabaseDSN
}

// StaleBaselineAge returns how long an unobserved rate baseline is kept.
func (c *AgentConfig) StaleBaselineAge() time.Duration {
	if c.StaleAfter > 0 {
		return c.StaleAfter
	}
	return StaleIntervals * c.Interval.Duration()
}

// ResolveHostname returns the configured hostname or the kernel hostname.
func (c *AgentConfig) ResolveHostname() (string, error) {
	if c.Hostname != "" {
		return c.Hostname, nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("error getting hostname: %w", err)
	}
	return hostname, nil
}
