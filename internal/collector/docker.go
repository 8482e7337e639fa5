package collector

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Schera-ole/hostagent/internal/docker"
	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

// statsParallelism bounds concurrent stats requests to the daemon.
const statsParallelism = 4

type dockerAPI interface {
	ListContainers(ctx context.Context) ([]docker.ContainerSummary, error)
	Stats(ctx context.Context, id string) (docker.Stats, error)
}

// DockerCollector reports cpu, memory and network usage of running containers.
type DockerCollector struct {
	tracker *rate.Tracker
	client  dockerAPI
	logger  *zap.SugaredLogger
}

func NewDockerCollector(tracker *rate.Tracker, client dockerAPI, logger *zap.SugaredLogger) *DockerCollector {
	return &DockerCollector{tracker: tracker, client: client, logger: logger}
}

func (c *DockerCollector) Kind() models.Kind { return models.KindDocker }

func (c *DockerCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	containers, err := c.client.ListContainers(ctx)
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}

	stats := make([]*docker.Stats, len(containers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsParallelism)
	for i, container := range containers {
		g.Go(func() error {
			s, err := c.client.Stats(gctx, container.ID)
			if err != nil {
				c.logger.Warnw("failed to get container stats", "container", container.ID, "error", err)
				return nil
			}
			stats[i] = &s
			return nil
		})
	}
	_ = g.Wait()

	var samples []models.Sample
	for i, s := range stats {
		if s == nil {
			continue
		}
		name := s.ContainerName()
		if name == "" {
			name = containers[i].ID
		}
		rx, tx := s.NetworkTotals()
		delta, ok := c.tracker.Observe(rate.Key{Kind: models.KindDocker, ID: name}, h.Timestamp,
			s.CPUStats.CPUUsage.TotalUsage, s.CPUStats.SystemCPUUsage, tx, rx)
		if !ok {
			continue
		}

		var cpuUsage float64
		if delta.Values[1] > 0 {
			cpuUsage = float64(delta.Values[0]) / float64(delta.Values[1]) * float64(s.OnlineCPUs()) * 100
		}
		samples = append(samples, models.DockerContainerSample{
			Header:      h,
			Name:        name,
			State:       models.ParseContainerState(containers[i].State),
			CPUUsage:    cpuUsage,
			MemoryUsage: int64(s.MemoryStats.Usage),
			MemoryCache: int64(s.MemoryCache()),
			NetworkTx:   delta.Rate(2),
			NetworkRx:   delta.Rate(3),
		})
	}
	return samples, nil
}
