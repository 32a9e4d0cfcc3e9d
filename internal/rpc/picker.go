// Package rpc checks and ranks JSON-RPC endpoints so the CLI can fall back
// to a healthy node when the configured one is down or lagging.
package rpc

import (
	"errors"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Discard nodes more than this many blocks behind the best.
const staleBlockThreshold = 3

// Endpoint is a single RPC endpoint with its measured attributes.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool
}

// Fastest returns the highest-scoring healthy endpoint. Nodes trailing the
// best observed block by more than staleBlockThreshold are discarded even
// when they respond quickly.
func Fastest(endpoints []Endpoint) (*Endpoint, error) {
	var bestBlock uint64
	for _, e := range endpoints {
		if e.Healthy && e.BlockNumber > bestBlock {
			bestBlock = e.BlockNumber
		}
	}

	var winner *Endpoint
	var bestScore float64
	for i := range endpoints {
		e := &endpoints[i]
		if !e.Healthy {
			continue
		}
		if bestBlock > 0 && bestBlock-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, bestBlock); winner == nil || s > bestScore {
			winner = e
			bestScore = s
		}
	}

	if winner == nil {
		return nil, ErrNoHealthyRPC
	}
	return winner, nil
}

func score(e *Endpoint, bestBlock uint64) float64 {
	var s float64

	// Latency score: higher = faster.
	if e.Latency > 0 {
		s += 1000.0 / float64(e.Latency.Milliseconds()+1)
	}

	// Block recency: loses a point per block behind the best.
	if bestBlock > 0 {
		s += float64(10 - (bestBlock - e.BlockNumber))
	}

	return s
}
