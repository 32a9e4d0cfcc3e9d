package rpc_test

import (
	"testing"
	"time"

	"github.com/engineerpawangupta/crowsale/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ep(url string, latency time.Duration, block uint64, healthy bool) rpc.Endpoint {
	return rpc.Endpoint{URL: url, Latency: latency, BlockNumber: block, Healthy: healthy}
}

func TestFastestSelectsLowestLatency(t *testing.T) {
	endpoints := []rpc.Endpoint{
		ep("http://slow.rpc", 200*time.Millisecond, 100, true),
		ep("http://fast.rpc", 30*time.Millisecond, 100, true),
		ep("http://medium.rpc", 80*time.Millisecond, 100, true),
	}

	winner, err := rpc.Fastest(endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://fast.rpc", winner.URL)
}

func TestFastestDiscardsStaleNodes(t *testing.T) {
	endpoints := []rpc.Endpoint{
		ep("http://fresh.rpc", 50*time.Millisecond, 1000, true),
		ep("http://stale.rpc", 10*time.Millisecond, 990, true), // 10 blocks behind
	}

	winner, err := rpc.Fastest(endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://fresh.rpc", winner.URL, "stale node should be discarded even if faster")
}

func TestFastestSkipsUnhealthy(t *testing.T) {
	endpoints := []rpc.Endpoint{
		ep("http://dead.rpc", 5*time.Millisecond, 1000, false),
		ep("http://alive.rpc", 90*time.Millisecond, 1000, true),
	}

	winner, err := rpc.Fastest(endpoints)
	require.NoError(t, err)
	assert.Equal(t, "http://alive.rpc", winner.URL)
}

func TestFastestAllUnhealthy(t *testing.T) {
	endpoints := []rpc.Endpoint{
		ep("http://a.rpc", 10*time.Millisecond, 100, false),
		ep("http://b.rpc", 10*time.Millisecond, 100, false),
	}

	_, err := rpc.Fastest(endpoints)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestFastestEmpty(t *testing.T) {
	_, err := rpc.Fastest(nil)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}
