package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/load"

	models "github.com/Schera-ole/hostagent/internal/model"
)

type LoadAverageCollector struct {
	avg func(ctx context.Context) (*load.AvgStat, error)
}

func NewLoadAverageCollector() *LoadAverageCollector {
	return &LoadAverageCollector{avg: load.AvgWithContext}
}

func (c *LoadAverageCollector) Kind() models.Kind { return models.KindLoadAverage }

func (c *LoadAverageCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	avg, err := c.avg(ctx)
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}
	return []models.Sample{models.LoadAverageSample{
		Header:  h,
		One:     avg.Load1,
		Five:    avg.Load5,
		Fifteen: avg.Load15,
	}}, nil
}
