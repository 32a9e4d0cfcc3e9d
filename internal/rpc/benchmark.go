package rpc

import (
	"context"
	"sync"
)

// Benchmark pings all endpoints in parallel.
func Benchmark(ctx context.Context, urls []string) []Endpoint {
	endpoints := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			endpoints[idx] = Check(ctx, u)
		}(i, url)
	}
	wg.Wait()
	return endpoints
}

// Select benchmarks urls and returns the fastest healthy one. A single
// candidate is returned without probing.
func Select(ctx context.Context, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNoHealthyRPC
	}
	if len(urls) == 1 {
		return urls[0], nil
	}

	winner, err := Fastest(Benchmark(ctx, urls))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}
