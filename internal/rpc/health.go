package rpc

import (
	"context"
	"time"

	"github.com/engineerpawangupta/crowsale/internal/chain"
)

// checkTimeout bounds a single endpoint probe.
var checkTimeout = 5 * time.Second

// Check pings a single endpoint. The endpoint is healthy when it responds
// within the probe timeout; staleness relative to other nodes is judged
// later by Fastest.
func Check(ctx context.Context, url string) Endpoint {
	probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	latency, block, err := chain.NewClient(url).Ping(probeCtx)
	return Endpoint{
		URL:         url,
		Latency:     latency,
		BlockNumber: block,
		Healthy:     err == nil,
	}
}
