package collector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Schera-ole/hostagent/internal/docker"
	internalerrors "github.com/Schera-ole/hostagent/internal/errors"
	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

type fakeDocker struct {
	mu         sync.Mutex
	containers []docker.ContainerSummary
	listErr    error
	stats      map[string]docker.Stats
	statsErr   map[string]error
}

func (f *fakeDocker) ListContainers(ctx context.Context) ([]docker.ContainerSummary, error) {
	return f.containers, f.listErr
}

func (f *fakeDocker) Stats(ctx context.Context, id string) (docker.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statsErr[id]; err != nil {
		return docker.Stats{}, err
	}
	return f.stats[id], nil
}

func (f *fakeDocker) set(id string, s docker.Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[id] = s
}

func containerStats(name string, cpuTotal, systemTotal, rx, tx uint64) docker.Stats {
	var s docker.Stats
	s.Name = "/" + name
	s.CPUStats.CPUUsage.TotalUsage = cpuTotal
	s.CPUStats.SystemCPUUsage = systemTotal
	s.CPUStats.OnlineCPUs = 2
	s.MemoryStats.Usage = 64 << 20
	s.MemoryStats.Stats = map[string]uint64{"cache": 8 << 20}
	s.Networks = map[string]struct {
		RxBytes uint64 `json:"rx_bytes"`
		TxBytes uint64 `json:"tx_bytes"`
	}{"eth0": {RxBytes: rx, TxBytes: tx}}
	return s
}

func TestDockerCollector_Usage(t *testing.T) {
	fake := &fakeDocker{
		containers: []docker.ContainerSummary{{ID: "a1", State: "running"}, {ID: "b2", State: "running"}},
		stats: map[string]docker.Stats{
			"a1": containerStats("web", 1_000, 100_000, 0, 0),
			"b2": containerStats("db", 5_000, 100_000, 100, 100),
		},
	}
	c := NewDockerCollector(rate.NewTracker(), fake, zap.NewNop().Sugar())

	samples, err := c.Collect(context.Background(), headerAt(0))
	require.NoError(t, err)
	assert.Empty(t, samples)

	fake.set("a1", containerStats("web", 6_000, 200_000, 6_000, 3_000))
	fake.set("b2", containerStats("db", 5_000, 200_000, 100, 100))

	samples, err = c.Collect(context.Background(), headerAt(60))
	require.NoError(t, err)
	require.Len(t, samples, 2)

	web := samples[0].(models.DockerContainerSample)
	assert.Equal(t, "web", web.Name)
	assert.Equal(t, models.ContainerRunning, web.State)
	assert.InDelta(t, 10.0, web.CPUUsage, 1e-9, "5000/100000 of the system across 2 cpus")
	assert.Equal(t, int64(64<<20), web.MemoryUsage)
	assert.Equal(t, int64(8<<20), web.MemoryCache)
	assert.InDelta(t, 50, web.NetworkTx, 1e-9)
	assert.InDelta(t, 100, web.NetworkRx, 1e-9)

	db := samples[1].(models.DockerContainerSample)
	assert.Equal(t, "db", db.Name)
	assert.Zero(t, db.CPUUsage)
}

func TestDockerCollector_SkipsFailedContainer(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fake := &fakeDocker{
		containers: []docker.ContainerSummary{{ID: "a1", State: "running"}, {ID: "gone", State: "running"}},
		stats:      map[string]docker.Stats{"a1": containerStats("web", 1_000, 100_000, 0, 0)},
		statsErr:   map[string]error{"gone": errors.New("No such container: gone")},
	}
	c := NewDockerCollector(rate.NewTracker(), fake, zap.New(core).Sugar())

	_, err := c.Collect(context.Background(), headerAt(0))
	require.NoError(t, err)
	fake.set("a1", containerStats("web", 2_000, 200_000, 0, 0))

	samples, err := c.Collect(context.Background(), headerAt(60))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "web", samples[0].(models.DockerContainerSample).Name)
	assert.Equal(t, 2, logs.FilterMessage("failed to get container stats").Len())
}

func TestDockerCollector_DaemonUnreachable(t *testing.T) {
	fake := &fakeDocker{listErr: errors.New("dial unix /var/run/docker.sock: connect: no such file or directory")}
	c := NewDockerCollector(rate.NewTracker(), fake, zap.NewNop().Sugar())

	_, err := c.Collect(context.Background(), headerAt(0))
	assert.ErrorIs(t, err, internalerrors.ErrCollection)
}
