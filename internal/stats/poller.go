// Package stats refreshes the presale's aggregate figures on an interval.
// A round's five reads run in parallel and merge only when every one
// succeeds, so consumers never observe a torn snapshot.
package stats

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Snapshot is one complete round of aggregate reads.
type Snapshot struct {
	RemainingSupply *big.Int
	TotalRaised     *big.Int
	TotalSold       *big.Int
	BuyerCount      uint64
	UnitPrice       *big.Int
	AsOf            time.Time
}

// Source supplies the aggregate reads from the sale contract.
type Source interface {
	RemainingSupply(ctx context.Context) (*big.Int, error)
	TotalRaised(ctx context.Context) (*big.Int, error)
	TotalSold(ctx context.Context) (*big.Int, error)
	BuyerCount(ctx context.Context) (uint64, error)
	UnitPrice(ctx context.Context) (*big.Int, error)
}

// Poller drives periodic rounds and retains the last complete snapshot
// across partial failures.
type Poller struct {
	source   Source
	interval time.Duration

	mu         sync.Mutex
	snapshot   *Snapshot
	partialErr string
}

// NewPoller creates a poller; interval defaults to 30s when zero.
func NewPoller(source Source, interval time.Duration) *Poller {
	if interval == 0 {
		interval = 30 * time.Second
	}
	return &Poller{source: source, interval: interval}
}

// Current returns the last complete snapshot. ok is false until a first
// round has fully succeeded.
func (p *Poller) Current() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot == nil {
		return Snapshot{}, false
	}
	return *p.snapshot, true
}

// PartialFailure reports whether the most recent round failed partially,
// with the underlying reason. The retained snapshot stays valid.
func (p *Poller) PartialFailure() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.partialErr, p.partialErr != ""
}

// RefreshNow runs one round immediately.
func (p *Poller) RefreshNow(ctx context.Context) error {
	return p.round(ctx)
}

// Run rounds immediately and then on every interval tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.round(ctx) //nolint:errcheck
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.round(ctx) //nolint:errcheck
		}
	}
}

func (p *Poller) round(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		next Snapshot
		errs = make([]error, 5)
	)

	reads := []func() error{
		func() (err error) { next.RemainingSupply, err = p.source.RemainingSupply(ctx); return },
		func() (err error) { next.TotalRaised, err = p.source.TotalRaised(ctx); return },
		func() (err error) { next.TotalSold, err = p.source.TotalSold(ctx); return },
		func() (err error) { next.BuyerCount, err = p.source.BuyerCount(ctx); return },
		func() (err error) { next.UnitPrice, err = p.source.UnitPrice(ctx); return },
	}
	for i, read := range reads {
		wg.Add(1)
		go func(i int, read func() error) {
			defer wg.Done()
			errs[i] = read()
		}(i, read)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			p.mu.Lock()
			p.partialErr = err.Error()
			p.mu.Unlock()
			return fmt.Errorf("stats round incomplete: %w", err)
		}
	}

	next.AsOf = time.Now()
	p.mu.Lock()
	p.snapshot = &next
	p.partialErr = ""
	p.mu.Unlock()
	return nil
}
