package collector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

// NginxCollector reports the requests handled since the previous tick, read
// from the ngx_http_stub_status_module page.
type NginxCollector struct {
	tracker   *rate.Tracker
	client    *http.Client
	statusURL string
}

func NewNginxCollector(tracker *rate.Tracker, client *http.Client, statusURL string) *NginxCollector {
	return &NginxCollector{tracker: tracker, client: client, statusURL: statusURL}
}

func (c *NginxCollector) Kind() models.Kind { return models.KindNginx }

func (c *NginxCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	requests, err := c.fetchRequests(ctx)
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}

	delta, ok := c.tracker.Observe(rate.Key{Kind: models.KindNginx, ID: c.statusURL}, h.Timestamp, requests)
	if !ok {
		return nil, nil
	}
	return []models.Sample{models.NginxSample{Header: h, HandledRequests: int64(delta.Values[0])}}, nil
}

func (c *NginxCollector) fetchRequests(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return parseStubStatus(io.LimitReader(resp.Body, 64<<10))
}

// parseStubStatus extracts the total requests counter:
//
//	Active connections: 2
//	server accepts handled requests
//	 16630948 16630948 31070465
//	Reading: 0 Writing: 6 Waiting: 179
func parseStubStatus(r io.Reader) (uint64, error) {
	scanner := bufio.NewScanner(r)
	for line := 0; scanner.Scan(); line++ {
		if line != 2 {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			return 0, fmt.Errorf("malformed stub_status counters line %q", scanner.Text())
		}
		requests, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed requests counter: %w", err)
		}
		return requests, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("stub_status response is too short")
}
