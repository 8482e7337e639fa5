package collector

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
	"go.uber.org/zap"

	models "github.com/Schera-ole/hostagent/internal/model"
)

// FilesystemCollector reports size and usage of every mounted block device.
type FilesystemCollector struct {
	logger       *zap.SugaredLogger
	excludeTypes []string
	partitions   func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	usage        func(ctx context.Context, path string) (*disk.UsageStat, error)
}

func NewFilesystemCollector(excludeTypes []string, logger *zap.SugaredLogger) *FilesystemCollector {
	return &FilesystemCollector{
		logger:       logger,
		excludeTypes: excludeTypes,
		partitions:   disk.PartitionsWithContext,
		usage:        disk.UsageWithContext,
	}
}

func (c *FilesystemCollector) Kind() models.Kind { return models.KindFilesystem }

func (c *FilesystemCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	partitions, err := c.partitions(ctx, false)
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}

	seen := make(map[string]bool, len(partitions))
	var samples []models.Sample
	for _, p := range partitions {
		if c.excluded(p.Fstype) || seen[p.Device] {
			continue
		}
		usage, err := c.usage(ctx, p.Mountpoint)
		if err != nil {
			c.logger.Debugw("skipping unreadable mount", "mountpoint", p.Mountpoint, "error", err)
			continue
		}
		seen[p.Device] = true
		samples = append(samples, models.FilesystemSample{
			Header:     h,
			Filesystem: p.Device,
			Total:      int64(usage.Total),
			Used:       int64(usage.Used),
		})
	}
	return samples, nil
}

// excluded matches fstype exactly or by subtype, so fuse also covers fuse.sshfs.
func (c *FilesystemCollector) excluded(fstype string) bool {
	for _, t := range c.excludeTypes {
		if fstype == t || strings.HasPrefix(fstype, t+".") {
			return true
		}
	}
	return false
}
