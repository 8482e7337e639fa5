package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/mem"

	models "github.com/Schera-ole/hostagent/internal/model"
)

type MemoryCollector struct {
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{virtualMemory: mem.VirtualMemoryWithContext}
}

func (c *MemoryCollector) Kind() models.Kind { return models.KindMemory }

func (c *MemoryCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	vm, err := c.virtualMemory(ctx)
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}
	return []models.Sample{models.MemorySample{
		Header:    h,
		Total:     int64(vm.Total),
		Free:      int64(vm.Free),
		Available: int64(vm.Available),
		Buffers:   int64(vm.Buffers),
		Cached:    int64(vm.Cached),
		SwapTotal: int64(vm.SwapTotal),
		SwapFree:  int64(vm.SwapFree),
	}}, nil
}
