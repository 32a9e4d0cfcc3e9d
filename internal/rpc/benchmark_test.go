package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockServer serves eth_blockNumber with a fixed result after an optional delay.
func blockServer(t *testing.T, blockHex string, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0", "id": 1, "result": blockHex,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckHealthy(t *testing.T) {
	srv := blockServer(t, "0x64", 0)

	e := Check(context.Background(), srv.URL)
	assert.True(t, e.Healthy)
	assert.Equal(t, uint64(100), e.BlockNumber)
	assert.Greater(t, e.Latency, time.Duration(0))
}

func TestCheckUnreachable(t *testing.T) {
	srv := blockServer(t, "0x64", 0)
	srv.Close()

	e := Check(context.Background(), srv.URL)
	assert.False(t, e.Healthy)
}

func TestBenchmarkProbesAll(t *testing.T) {
	a := blockServer(t, "0x10", 0)
	b := blockServer(t, "0x11", 0)

	endpoints := Benchmark(context.Background(), []string{a.URL, b.URL})
	require.Len(t, endpoints, 2)
	assert.Equal(t, a.URL, endpoints[0].URL)
	assert.Equal(t, uint64(16), endpoints[0].BlockNumber)
	assert.Equal(t, uint64(17), endpoints[1].BlockNumber)
}

func TestSelectSingleURLSkipsProbe(t *testing.T) {
	// An unreachable URL is still returned when it is the only candidate.
	url, err := Select(context.Background(), []string{"http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1", url)
}

func TestSelectPicksHealthy(t *testing.T) {
	dead := blockServer(t, "0x64", 0)
	dead.Close()
	live := blockServer(t, "0x64", 0)

	url, err := Select(context.Background(), []string{dead.URL, live.URL})
	require.NoError(t, err)
	assert.Equal(t, live.URL, url)
}

func TestSelectEmpty(t *testing.T) {
	_, err := Select(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoHealthyRPC)
}
