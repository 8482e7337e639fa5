package collector

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"

	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

// clockTicks is USER_HZ, the unit of the /proc/stat counters gopsutil converts to seconds.
const clockTicks = 100

// CPUCollector reports per-cpu time deltas in clock ticks.
type CPUCollector struct {
	tracker *rate.Tracker
	times   func(ctx context.Context, percpu bool) ([]cpu.TimesStat, error)
}

func NewCPUCollector(tracker *rate.Tracker) *CPUCollector {
	return &CPUCollector{tracker: tracker, times: cpu.TimesWithContext}
}

func (c *CPUCollector) Kind() models.Kind { return models.KindCPU }

func (c *CPUCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	stats, err := c.times(ctx, true)
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}

	// indices are resolved up front so a bad name leaves every baseline untouched
	indices := make([]int, len(stats))
	for i, stat := range stats {
		index, err := cpuIndex(stat.CPU)
		if err != nil {
			return nil, collectionError(c.Kind(), err)
		}
		indices[i] = index
	}

	samples := make([]models.Sample, 0, len(stats))
	for i, stat := range stats {
		delta, ok := c.tracker.Observe(rate.Key{Kind: models.KindCPU, ID: stat.CPU}, h.Timestamp,
			ticks(stat.User),
			ticks(stat.Nice),
			ticks(stat.System),
			ticks(stat.Idle),
			ticks(stat.Iowait),
			ticks(stat.Irq),
			ticks(stat.Softirq),
			ticks(stat.Guest),
			ticks(stat.Steal),
			ticks(stat.GuestNice),
		)
		if !ok {
			continue
		}
		v := delta.Values
		samples = append(samples, models.CPUSample{
			Header:    h,
			CPU:       indices[i],
			User:      int64(v[0]),
			Nice:      int64(v[1]),
			System:    int64(v[2]),
			Idle:      int64(v[3]),
			IOWait:    int64(v[4]),
			IRQ:       int64(v[5]),
			SoftIRQ:   int64(v[6]),
			Guest:     int64(v[7]),
			Steal:     int64(v[8]),
			GuestNice: int64(v[9]),
		})
	}
	return samples, nil
}

func ticks(seconds float64) uint64 {
	return uint64(math.Round(seconds * clockTicks))
}

func cpuIndex(name string) (int, error) {
	index, err := strconv.Atoi(strings.TrimPrefix(name, "cpu"))
	if err != nil || !strings.HasPrefix(name, "cpu") {
		return 0, fmt.Errorf("unexpected cpu name %q", name)
	}
	return index, nil
}
