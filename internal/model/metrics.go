// Package models defines the samples produced by collectors and the tables they are stored in.
package models

import "time"

// Kind identifies a metric kind and, through Tables, its destination table.
type Kind string

const (
	KindCPU              Kind = "cpu"
	KindLoadAverage      Kind = "load_average"
	KindMemory           Kind = "memory"
	KindIO               Kind = "io"
	KindFilesystem       Kind = "filesystem"
	KindNetwork          Kind = "network"
	KindNginx            Kind = "nginx"
	KindPostgresDatabase Kind = "postgres_database"
	KindPostgresTables   Kind = "postgres_tables"
	KindDocker           Kind = "docker"
)

// Kinds lists every kind in canonical order. Batches are written in this order.
var Kinds = []Kind{
	KindCPU,
	KindLoadAverage,
	KindMemory,
	KindIO,
	KindFilesystem,
	KindNetwork,
	KindNginx,
	KindPostgresDatabase,
	KindPostgresTables,
	KindDocker,
}

// Table describes the destination of one kind of sample.
type Table struct {
	// Name is the table name in the store
	Name string

	// Columns lists all columns in insert order, hostname and timestamp first
	Columns []string
}

var commonColumns = []string{"hostname", "timestamp"}

func table(name string, columns ...string) Table {
	return Table{Name: name, Columns: append(append([]string{}, commonColumns...), columns...)}
}

// Tables maps each kind to its table.
var Tables = map[Kind]Table{
	KindCPU: table("metric_cpu",
		"cpu", "user", "nice", "system", "idle", "iowait", "irq", "softirq", "guest", "steal", "guest_nice"),
	KindLoadAverage:      table("metric_load_average", "one", "five", "fifteen"),
	KindMemory:           table("metric_memory", "total", "free", "available", "buffers", "cached", "swap_total", "swap_free"),
	KindIO:               table("metric_io", "device", "read_rate", "write_rate"),
	KindFilesystem:       table("metric_fs", "filesystem", "total", "used"),
	KindNetwork:          table("metric_network", "device", "rx_rate", "tx_rate"),
	KindNginx:            table("metric_nginx", "handled_requests"),
	KindPostgresDatabase: table("metric_postgres_database", "returned", "fetched", "inserted", "updated", "deleted"),
	KindPostgresTables:   table("metric_postgres_tables", "name", "rows", "total_bytes"),
	KindDocker: table("metric_docker_containers",
		"name", "state", "cpu_usage", "memory_usage", "memory_cache", "network_tx", "network_rx"),
}

// Header carries the fields shared by every sample of one tick.
type Header struct {
	// Hostname is the host the agent runs on
	Hostname string

	// Timestamp is captured once at tick start
	Timestamp time.Time
}

func (h Header) header() Header { return h }

func (h Header) prefix(values ...any) []any {
	return append([]any{h.Hostname, h.Timestamp}, values...)
}

// Sample is one measurement of one kind at one instant for one host.
//
// The set of implementations is closed: only the types in this package satisfy it.
type Sample interface {
	// Kind returns the metric kind of the sample
	Kind() Kind

	// Row returns the column values in the order of Tables[Kind()].Columns
	Row() []any

	header() Header
}

// HeaderOf returns the hostname and timestamp of a sample.
func HeaderOf(s Sample) Header {
	return s.header()
}
