package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/net"

	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

// NetworkCollector reports per-interface receive and transmit throughput.
type NetworkCollector struct {
	tracker  *rate.Tracker
	counters func(ctx context.Context, pernic bool) ([]net.IOCountersStat, error)
}

func NewNetworkCollector(tracker *rate.Tracker) *NetworkCollector {
	return &NetworkCollector{tracker: tracker, counters: net.IOCountersWithContext}
}

func (c *NetworkCollector) Kind() models.Kind { return models.KindNetwork }

func (c *NetworkCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	counters, err := c.counters(ctx, true)
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}

	var samples []models.Sample
	for _, stat := range counters {
		delta, ok := c.tracker.Observe(rate.Key{Kind: models.KindNetwork, ID: stat.Name}, h.Timestamp, stat.BytesRecv, stat.BytesSent)
		if !ok {
			continue
		}
		samples = append(samples, models.NetworkSample{
			Header: h,
			Device: stat.Name,
			RxRate: delta.Rate(0),
			TxRate: delta.Rate(1),
		})
	}
	return samples, nil
}
