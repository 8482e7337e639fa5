// Package docker is a minimal client for the Docker Engine API served on a unix socket.
package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docker/go-connections/sockets"
)

// maxBodySize bounds every response read from the daemon.
const maxBodySize = 10 << 20

type Client struct {
	http *http.Client
}

// ContainerSummary is one entry of the container list.
type ContainerSummary struct {
	ID    string   `json:"Id"`
	Names []string `json:"Names"`
	Image string   `json:"Image"`
	State string   `json:"State"`
}

// Stats is a one-shot stats snapshot of a container.
type Stats struct {
	Name     string `json:"name"`
	CPUStats struct {
		CPUUsage struct {
			TotalUsage  uint64   `json:"total_usage"`
			PercpuUsage []uint64 `json:"percpu_usage"`
		} `json:"cpu_usage"`
		SystemCPUUsage uint64 `json:"system_cpu_usage"`
		OnlineCPUs     uint64 `json:"online_cpus"`
	} `json:"cpu_stats"`
	MemoryStats struct {
		Usage uint64            `json:"usage"`
		Stats map[string]uint64 `json:"stats"`
	} `json:"memory_stats"`
	Networks map[string]struct {
		RxBytes uint64 `json:"rx_bytes"`
		TxBytes uint64 `json:"tx_bytes"`
	} `json:"networks"`
}

// ContainerName returns the container name without the leading slash.
func (s Stats) ContainerName() string {
	return strings.TrimPrefix(s.Name, "/")
}

// OnlineCPUs returns the number of cpus available to the container.
// Daemons that do not report online_cpus are covered by the per-cpu usage list.
func (s Stats) OnlineCPUs() uint64 {
	if s.CPUStats.OnlineCPUs > 0 {
		return s.CPUStats.OnlineCPUs
	}
	return uint64(len(s.CPUStats.CPUUsage.PercpuUsage))
}

// MemoryCache returns the page cache charged to the container.
// cgroup v1 reports it as cache, cgroup v2 as inactive_file.
func (s Stats) MemoryCache() uint64 {
	if v, ok := s.MemoryStats.Stats["cache"]; ok {
		return v
	}
	return s.MemoryStats.Stats["inactive_file"]
}

// NetworkTotals sums received and transmitted bytes over every interface.
func (s Stats) NetworkTotals() (rx, tx uint64) {
	for _, n := range s.Networks {
		rx += n.RxBytes
		tx += n.TxBytes
	}
	return rx, tx
}

// NewClient returns a client talking to the daemon listening on socketPath.
func NewClient(socketPath string, timeout time.Duration) (*Client, error) {
	transport := &http.Transport{}
	if err := sockets.ConfigureTransport(transport, "unix", socketPath); err != nil {
		return nil, fmt.Errorf("failed to configure docker transport: %w", err)
	}
	return &Client{http: &http.Client{Transport: transport, Timeout: timeout}}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "/_ping")
	return err
}

// ListContainers returns the running containers.
func (c *Client) ListContainers(ctx context.Context) ([]ContainerSummary, error) {
	b, err := c.do(ctx, "/containers/json")
	if err != nil {
		return nil, err
	}
	var out []ContainerSummary
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode container list: %w", err)
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context, id string) (Stats, error) {
	b, err := c.do(ctx, "/containers/"+url.PathEscape(id)+"/stats?stream=false")
	if err != nil {
		return Stats{}, err
	}
	var out Stats
	if err := json.Unmarshal(b, &out); err != nil {
		return Stats{}, fmt.Errorf("failed to decode stats of %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, p string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://docker"+p, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = res.Status
		}
		return nil, fmt.Errorf("docker api GET %s failed: %s", p, msg)
	}
	return b, nil
}
