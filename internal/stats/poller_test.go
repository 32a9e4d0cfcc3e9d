package stats

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves fixed figures; individual reads can be failed by name.
type fakeSource struct {
	mu        sync.Mutex
	remaining *big.Int
	raised    *big.Int
	sold      *big.Int
	buyers    uint64
	price     *big.Int
	failing   map[string]bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		remaining: big.NewInt(200_000_000),
		raised:    big.NewInt(1_000),
		sold:      big.NewInt(4_000),
		buyers:    42,
		price:     big.NewInt(250_000),
		failing:   map[string]bool{},
	}
}

func (s *fakeSource) get(name string, v *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[name] {
		return nil, errors.New(name + " read failed")
	}
	return new(big.Int).Set(v), nil
}

func (s *fakeSource) RemainingSupply(ctx context.Context) (*big.Int, error) {
	return s.get("remaining", s.remaining)
}
func (s *fakeSource) TotalRaised(ctx context.Context) (*big.Int, error) {
	return s.get("raised", s.raised)
}
func (s *fakeSource) TotalSold(ctx context.Context) (*big.Int, error) {
	return s.get("sold", s.sold)
}
func (s *fakeSource) BuyerCount(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing["buyers"] {
		return 0, errors.New("buyers read failed")
	}
	return s.buyers, nil
}
func (s *fakeSource) UnitPrice(ctx context.Context) (*big.Int, error) {
	return s.get("price", s.price)
}

func (s *fakeSource) set(f func(*fakeSource)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

func TestNoSnapshotBeforeFirstRound(t *testing.T) {
	p := NewPoller(newFakeSource(), time.Minute)
	_, ok := p.Current()
	assert.False(t, ok)
}

func TestCompleteRoundPublishesSnapshot(t *testing.T) {
	src := newFakeSource()
	p := NewPoller(src, time.Minute)

	require.NoError(t, p.RefreshNow(context.Background()))

	snap, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, big.NewInt(200_000_000), snap.RemainingSupply)
	assert.Equal(t, uint64(42), snap.BuyerCount)
	assert.Equal(t, big.NewInt(250_000), snap.UnitPrice)
	assert.False(t, snap.AsOf.IsZero())

	_, partial := p.PartialFailure()
	assert.False(t, partial)
}

func TestPartialFailureRetainsPreviousSnapshot(t *testing.T) {
	src := newFakeSource()
	p := NewPoller(src, time.Minute)
	require.NoError(t, p.RefreshNow(context.Background()))
	before, _ := p.Current()

	// One of five reads fails and the figures change upstream: nothing of
	// the new round may leak into the snapshot.
	src.set(func(s *fakeSource) {
		s.failing["buyers"] = true
		s.raised = big.NewInt(9_999)
		s.sold = big.NewInt(9_999)
	})

	require.Error(t, p.RefreshNow(context.Background()))

	after, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, before, after, "a partially failed round must leave the snapshot unchanged")

	reason, partial := p.PartialFailure()
	assert.True(t, partial)
	assert.Contains(t, reason, "buyers read failed")
}

func TestRecoveryUpdatesAtomically(t *testing.T) {
	src := newFakeSource()
	p := NewPoller(src, time.Minute)
	require.NoError(t, p.RefreshNow(context.Background()))

	src.set(func(s *fakeSource) { s.failing["price"] = true })
	require.Error(t, p.RefreshNow(context.Background()))

	src.set(func(s *fakeSource) {
		s.failing["price"] = false
		s.raised = big.NewInt(2_000)
		s.sold = big.NewInt(8_000)
		s.buyers = 43
	})
	require.NoError(t, p.RefreshNow(context.Background()))

	snap, _ := p.Current()
	assert.Equal(t, big.NewInt(2_000), snap.TotalRaised)
	assert.Equal(t, big.NewInt(8_000), snap.TotalSold)
	assert.Equal(t, uint64(43), snap.BuyerCount)

	_, partial := p.PartialFailure()
	assert.False(t, partial, "a fully successful round clears the partial-failure flag")
}

func TestRunHonorsContext(t *testing.T) {
	src := newFakeSource()
	p := NewPoller(src, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := p.Current()
		return ok
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
