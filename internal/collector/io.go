package collector

import (
	"context"
	"slices"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"

	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

// IOCollector reports per-device read and write throughput.
type IOCollector struct {
	tracker         *rate.Tracker
	excludePrefixes []string
	counters        func(ctx context.Context, names ...string) (map[string]disk.IOCountersStat, error)
}

func NewIOCollector(tracker *rate.Tracker, excludePrefixes []string) *IOCollector {
	return &IOCollector{tracker: tracker, excludePrefixes: excludePrefixes, counters: disk.IOCountersWithContext}
}

func (c *IOCollector) Kind() models.Kind { return models.KindIO }

func (c *IOCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	counters, err := c.counters(ctx)
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}

	var samples []models.Sample
	for _, device := range sortedKeys(counters) {
		if hasAnyPrefix(device, c.excludePrefixes) {
			continue
		}
		stat := counters[device]
		delta, ok := c.tracker.Observe(rate.Key{Kind: models.KindIO, ID: device}, h.Timestamp, stat.ReadBytes, stat.WriteBytes)
		if !ok {
			continue
		}
		samples = append(samples, models.IOSample{
			Header:    h,
			Device:    device,
			ReadRate:  delta.Rate(0),
			WriteRate: delta.Rate(1),
		})
	}
	return samples, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
