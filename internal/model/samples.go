package models

import "strings"

// CPUSample holds per-cpu tick deltas between the two most recent readings.
type CPUSample struct {
	Header
	CPU       int
	User      int64
	Nice      int64
	System    int64
	Idle      int64
	IOWait    int64
	IRQ       int64
	SoftIRQ   int64
	Guest     int64
	Steal     int64
	GuestNice int64
}

func (CPUSample) Kind() Kind { return KindCPU }

func (s CPUSample) Row() []any {
	return s.prefix(s.CPU, s.User, s.Nice, s.System, s.Idle, s.IOWait, s.IRQ, s.SoftIRQ, s.Guest, s.Steal, s.GuestNice)
}

// LoadAverageSample holds the one, five and fifteen minute load averages.
type LoadAverageSample struct {
	Header
	One     float64
	Five    float64
	Fifteen float64
}

func (LoadAverageSample) Kind() Kind { return KindLoadAverage }

func (s LoadAverageSample) Row() []any { return s.prefix(s.One, s.Five, s.Fifteen) }

// MemorySample holds memory and swap gauges in bytes.
type MemorySample struct {
	Header
	Total     int64
	Free      int64
	Available int64
	Buffers   int64
	Cached    int64
	SwapTotal int64
	SwapFree  int64
}

func (MemorySample) Kind() Kind { return KindMemory }

func (s MemorySample) Row() []any {
	return s.prefix(s.Total, s.Free, s.Available, s.Buffers, s.Cached, s.SwapTotal, s.SwapFree)
}

// IOSample holds per-device read and write rates in bytes per second.
type IOSample struct {
	Header
	Device    string
	ReadRate  float64
	WriteRate float64
}

func (IOSample) Kind() Kind { return KindIO }

func (s IOSample) Row() []any { return s.prefix(s.Device, s.ReadRate, s.WriteRate) }

// FilesystemSample holds the size and usage of one filesystem in bytes.
type FilesystemSample struct {
	Header
	Filesystem string
	Total      int64
	Used       int64
}

func (FilesystemSample) Kind() Kind { return KindFilesystem }

func (s FilesystemSample) Row() []any { return s.prefix(s.Filesystem, s.Total, s.Used) }

// NetworkSample holds per-interface receive and transmit rates in bytes per second.
type NetworkSample struct {
	Header
	Device string
	RxRate float64
	TxRate float64
}

func (NetworkSample) Kind() Kind { return KindNetwork }

func (s NetworkSample) Row() []any { return s.prefix(s.Device, s.RxRate, s.TxRate) }

// NginxSample holds the number of requests handled since the previous tick.
type NginxSample struct {
	Header
	HandledRequests int64
}

func (NginxSample) Kind() Kind { return KindNginx }

func (s NginxSample) Row() []any { return s.prefix(s.HandledRequests) }

// PostgresDatabaseSample holds tuple counter deltas of the monitored database.
type PostgresDatabaseSample struct {
	Header
	Returned int64
	Fetched  int64
	Inserted int64
	Updated  int64
	Deleted  int64
}

func (PostgresDatabaseSample) Kind() Kind { return KindPostgresDatabase }

func (s PostgresDatabaseSample) Row() []any {
	return s.prefix(s.Returned, s.Fetched, s.Inserted, s.Updated, s.Deleted)
}

// PostgresTableSample holds the estimated row count and total size of one table.
type PostgresTableSample struct {
	Header
	Name       string
	Rows       int64
	TotalBytes int64
}

func (PostgresTableSample) Kind() Kind { return KindPostgresTables }

func (s PostgresTableSample) Row() []any { return s.prefix(s.Name, s.Rows, s.TotalBytes) }

// ContainerState is the coarse state of a docker container.
type ContainerState string

const (
	ContainerRunning ContainerState = "running"
	ContainerExited  ContainerState = "exited"
	ContainerOther   ContainerState = "other"
)

// ParseContainerState maps a daemon state string onto ContainerState.
func ParseContainerState(s string) ContainerState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ContainerRunning):
		return ContainerRunning
	case string(ContainerExited):
		return ContainerExited
	default:
		return ContainerOther
	}
}

// DockerContainerSample holds resource usage of one container.
type DockerContainerSample struct {
	Header
	Name        string
	State       ContainerState
	CPUUsage    float64
	MemoryUsage int64
	MemoryCache int64
	NetworkTx   float64
	NetworkRx   float64
}

func (DockerContainerSample) Kind() Kind { return KindDocker }

func (s DockerContainerSample) Row() []any {
	return s.prefix(s.Name, string(s.State), s.CPUUsage, s.MemoryUsage, s.MemoryCache, s.NetworkTx, s.NetworkRx)
}
