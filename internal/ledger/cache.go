// Package ledger caches the latest known on-chain reads for the connected
// wallet: balances, the sale allowance, and the unit price. Values are served
// stale-while-revalidate — a failed refresh never clobbers the last good read.
package ledger

import (
	"context"
	"math/big"
	"sync"
	"time"
)

// Key identifies one cached read.
type Key string

const (
	KeyPaymentBalance Key = "payment_balance"
	KeyTokenBalance   Key = "token_balance"
	KeyAllowance      Key = "allowance"
	KeyUnitPrice      Key = "unit_price"
)

// ReadFunc performs a live on-chain read for one key.
type ReadFunc func(ctx context.Context, key Key) (*big.Int, error)

// Record is one cached value. A Record is replaced wholesale on refresh;
// readers never observe a half-written record. Absence of a record means
// "unknown", not zero.
type Record struct {
	Value       *big.Int
	AsOf        time.Time
	Stale       bool
	StaleReason string
}

// Cache holds the latest known reads and drives timer refreshes.
type Cache struct {
	read ReadFunc

	mu      sync.Mutex
	records map[Key]Record
	subs    map[Key]*subscription
}

type subscription struct {
	refs int
	stop chan struct{}
}

// NewCache creates a cache backed by the given live reader.
func NewCache(read ReadFunc) *Cache {
	return &Cache{
		read:    read,
		records: make(map[Key]Record),
		subs:    make(map[Key]*subscription),
	}
}

// Read returns the last known record for key, which may be stale.
// The second return is false when no read has ever succeeded.
func (c *Cache) Read(key Key) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[key]
	return rec, ok
}

// Refresh forces a live read and replaces the record. On failure the
// previous record is retained with its Stale flag set and the error is
// returned for the caller to decide whether stale data is acceptable.
func (c *Cache) Refresh(ctx context.Context, key Key) error {
	value, err := c.read(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if rec, ok := c.records[key]; ok {
			rec.Stale = true
			rec.StaleReason = err.Error()
			c.records[key] = rec
		}
		return err
	}
	c.records[key] = Record{Value: value, AsOf: time.Now()}
	return nil
}

// RefreshAll refreshes the given keys, returning the first error after
// attempting every key.
func (c *Cache) RefreshAll(ctx context.Context, keys ...Key) error {
	var firstErr error
	for _, key := range keys {
		if err := c.Refresh(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe starts (or joins) a periodic refresh of key. The returned stop
// function detaches this subscriber; the refresh timer runs only while at
// least one subscriber remains. Stop is idempotent. A non-positive interval
// falls back to 30 s.
func (c *Cache) Subscribe(key Key, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c.mu.Lock()
	sub, ok := c.subs[key]
	if !ok {
		sub = &subscription{stop: make(chan struct{})}
		c.subs[key] = sub
		go c.refreshLoop(key, interval, sub.stop)
	}
	sub.refs++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			sub.refs--
			if sub.refs == 0 {
				close(sub.stop)
				delete(c.subs, key)
			}
		})
	}
}

func (c *Cache) refreshLoop(key Key, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Prime the cache immediately rather than waiting a full interval.
	c.Refresh(context.Background(), key) //nolint:errcheck

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Refresh(context.Background(), key) //nolint:errcheck
		}
	}
}

// subscriberCount reports active subscribers for key (test hook).
func (c *Cache) subscriberCount(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[key]; ok {
		return sub.refs
	}
	return 0
}
