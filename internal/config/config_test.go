package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/Schera-ole/hostagent/internal/errors"
	models "github.com/Schera-ole/hostagent/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://agent@localhost/metrics")
	t.Setenv("CONFIG", "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Interval.Duration())
	assert.Equal(t, 10*time.Second, cfg.CollectTimeout)
	assert.Equal(t, 4, cfg.Write.Attempts)
	assert.Equal(t, time.Second, cfg.Write.InitialBackoff)
	assert.Equal(t, "/var/run/docker.sock", cfg.Docker.Socket)
	assert.Equal(t, []string{"loop", "ram"}, cfg.System.IOExcludePrefixes)
	assert.Equal(t, 10*time.Minute, cfg.StaleBaselineAge())

	kinds, err := cfg.EnabledKinds()
	require.NoError(t, err)
	assert.Equal(t, []models.Kind{
		models.KindCPU, models.KindLoadAverage, models.KindMemory,
		models.KindIO, models.KindFilesystem, models.KindNetwork,
	}, kinds)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@localhost/metrics")
	t.Setenv("REPORT_INTERVAL", "30s")
	t.Setenv("CONFIG", "")

	cfg, err := Load([]string{"-i", "15s", "-d", "postgres://flag@localhost/metrics"})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Interval.Duration())
	assert.Equal(t, "postgres://flag@localhost/metrics", cfg.DatabaseDSN)
}

func TestLoad_IntervalBareSeconds(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@localhost/metrics")
	t.Setenv("CONFIG", "")

	for value, want := range map[string]time.Duration{
		"60":  time.Minute,
		"30s": 30 * time.Second,
	} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("REPORT_INTERVAL", value)
			cfg, err := Load(nil)
			require.NoError(t, err)
			assert.Equal(t, want, cfg.Interval.Duration())
		})
	}
}

func TestSeconds_SetValue(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "60", want: time.Minute},
		{in: " 5 ", want: 5 * time.Second},
		{in: "30s", want: 30 * time.Second},
		{in: "1m30s", want: 90 * time.Second},
		{in: "abc", wantErr: true},
		{in: "-", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s Seconds
			err := s.SetValue(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Duration())
		})
	}
}

func TestLoad_YAMLBareSeconds(t *testing.T) {
	t.Setenv("CONFIG", "")
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 45\ndatabase_url: postgres://file@localhost/metrics\n"), 0o600))

	cfg, err := Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Interval.Duration())
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Setenv("CONFIG", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	content := `
interval: 20s
database_url: postgres://file@localhost/metrics
collectors: [cpu, nginx, postgres]
nginx:
  status_url: http://127.0.0.1/nginx_status
postgres:
  database: shop
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Interval.Duration())
	assert.Equal(t, "postgres://file@localhost/metrics", cfg.PostgresDSN())

	kinds, err := cfg.EnabledKinds()
	require.NoError(t, err)
	assert.Equal(t, []models.Kind{
		models.KindCPU, models.KindNginx, models.KindPostgresDatabase, models.KindPostgresTables,
	}, kinds)
}

func TestLoad_DryRunWithoutDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG", "")

	_, err := Load(nil)
	assert.ErrorIs(t, err, internalerrors.ErrNotConfigured)

	cfg, err := Load([]string{"-dry-run"})
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
}

func validConfig() AgentConfig {
	return AgentConfig{
		Interval:       Seconds(time.Minute),
		DatabaseDSN:    "postgres://agent@localhost/metrics",
		CollectTimeout: 5 * time.Second,
		Collectors:     []string{"cpu"},
		Write:          WriteConfig{Attempts: 3, Timeout: time.Second},
		Docker:         DockerConfig{Socket: "/var/run/docker.sock"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AgentConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(c *AgentConfig) {}},
		{
			name:    "unknown collector",
			mutate:  func(c *AgentConfig) { c.Collectors = []string{"cpu", "gpu"} },
			wantErr: internalerrors.ErrUnknownCollector,
		},
		{
			name:    "nginx without url",
			mutate:  func(c *AgentConfig) { c.Collectors = []string{"nginx"} },
			wantErr: internalerrors.ErrNotConfigured,
		},
		{
			name:    "postgres without database",
			mutate:  func(c *AgentConfig) { c.Collectors = []string{"postgres"} },
			wantErr: internalerrors.ErrNotConfigured,
		},
		{
			name:    "docker without socket",
			mutate:  func(c *AgentConfig) { c.Collectors = []string{"docker"}; c.Docker.Socket = "" },
			wantErr: internalerrors.ErrNotConfigured,
		},
		{
			name: "postgres with separate dsn",
			mutate: func(c *AgentConfig) {
				c.Collectors = []string{"postgres_tables"}
				c.Postgres = PostgresConfig{Database: "shop", DSN: "postgres://ro@db/shop"}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_BadIntervals(t *testing.T) {
	cfg := validConfig()
	cfg.Interval = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Write.Attempts = 0
	assert.Error(t, cfg.Validate())
}

func TestResolveHostname(t *testing.T) {
	cfg := validConfig()
	cfg.Hostname = "db-7"
	hostname, err := cfg.ResolveHostname()
	require.NoError(t, err)
	assert.Equal(t, "db-7", hostname)

	cfg.Hostname = ""
	hostname, err = cfg.ResolveHostname()
	require.NoError(t, err)
	assert.NotEmpty(t, hostname)
}
