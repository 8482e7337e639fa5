package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowsMatchTableColumns(t *testing.T) {
	h := Header{Hostname: "web-1", Timestamp: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	samples := []Sample{
		CPUSample{Header: h, CPU: 1},
		LoadAverageSample{Header: h},
		MemorySample{Header: h},
		IOSample{Header: h, Device: "sda"},
		FilesystemSample{Header: h, Filesystem: "/dev/sda1"},
		NetworkSample{Header: h, Device: "eth0"},
		NginxSample{Header: h},
		PostgresDatabaseSample{Header: h},
		PostgresTableSample{Header: h, Name: "users"},
		DockerContainerSample{Header: h, Name: "db", State: ContainerRunning},
	}
	require.Len(t, samples, len(Kinds))

	for _, s := range samples {
		t.Run(string(s.Kind()), func(t *testing.T) {
			tbl, ok := Tables[s.Kind()]
			require.True(t, ok)
			row := s.Row()
			assert.Len(t, row, len(tbl.Columns))
			assert.Equal(t, "web-1", row[0])
			assert.Equal(t, h.Timestamp, row[1])
			assert.Equal(t, h, HeaderOf(s))
		})
	}
}

func TestTablesDoNotShareColumnSlices(t *testing.T) {
	cpu := Tables[KindCPU]
	mem := Tables[KindMemory]
	assert.Equal(t, []string{"hostname", "timestamp"}, cpu.Columns[:2])
	assert.Equal(t, "cpu", cpu.Columns[2])
	assert.Equal(t, "total", mem.Columns[2])
}

func TestParseContainerState(t *testing.T) {
	tests := []struct {
		in   string
		want ContainerState
	}{
		{"running", ContainerRunning},
		{"Running ", ContainerRunning},
		{"exited", ContainerExited},
		{"paused", ContainerOther},
		{"", ContainerOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseContainerState(tt.in), tt.in)
	}
}
