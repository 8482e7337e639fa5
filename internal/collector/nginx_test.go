package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/Schera-ole/hostagent/internal/errors"
	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

func stubStatus(requests int) string {
	return fmt.Sprintf("Active connections: 2 \nserver accepts handled requests\n 16630948 16630948 %d \nReading: 0 Writing: 6 Waiting: 179 \n", requests)
}

func TestNginxCollector_HandledRequestsDelta(t *testing.T) {
	requests := []int{31070465, 31070565}
	call := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nginx_status", r.URL.Path)
		fmt.Fprint(w, stubStatus(requests[call]))
		call++
	}))
	defer server.Close()

	c := NewNginxCollector(rate.NewTracker(), &http.Client{Timeout: time.Second}, server.URL+"/nginx_status")

	samples, err := c.Collect(context.Background(), headerAt(0))
	require.NoError(t, err)
	assert.Empty(t, samples)

	samples, err = c.Collect(context.Background(), headerAt(60))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, models.NginxSample{Header: headerAt(60), HandledRequests: 100}, samples[0])
}

func TestNginxCollector_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "non 2xx", status: http.StatusForbidden, body: "forbidden", wantErr: "unexpected status code: 403"},
		{name: "too short", status: http.StatusOK, body: "Active connections: 2\n", wantErr: "too short"},
		{name: "missing counter", status: http.StatusOK, body: "a\nb\n 1 2\n", wantErr: "malformed stub_status"},
		{name: "not a number", status: http.StatusOK, body: "a\nb\n 1 2 x\n", wantErr: "malformed requests counter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			c := NewNginxCollector(rate.NewTracker(), server.Client(), server.URL)
			_, err := c.Collect(context.Background(), headerAt(0))
			require.Error(t, err)
			assert.ErrorIs(t, err, internalerrors.ErrCollection)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNginxCollector_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewNginxCollector(rate.NewTracker(), &http.Client{Timeout: time.Second}, url)
	_, err := c.Collect(context.Background(), headerAt(0))
	assert.ErrorIs(t, err, internalerrors.ErrCollection)
}

func TestParseStubStatus(t *testing.T) {
	requests, err := parseStubStatus(strings.NewReader(stubStatus(42)))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), requests)
}
