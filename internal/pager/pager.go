// Package pager provides forward/backward navigation over a forward-only
// cursor API. The upstream hands out opaque next-page tokens; backward
// navigation replays cursors retained on a local stack.
package pager

import (
	"context"
	"sync"
)

// FetchFunc fetches one page for a filter. cursor is "" for the first page;
// next is "" when no further page exists.
type FetchFunc[E any] func(ctx context.Context, filter, cursor string, limit int) (items []E, next string, err error)

// Window is the currently displayed page. It is replaced wholesale on every
// navigation; pages from different filters are never merged.
type Window[E any] struct {
	Cursor  string // opaque token this page was fetched at ("" = first page)
	Items   []E
	HasNext bool
}

// Pager serializes page navigation over a FetchFunc. Navigation requests
// are last-request-wins: a newer request supersedes the result of any
// in-flight older one, which is discarded on arrival.
type Pager[E any] struct {
	fetch FetchFunc[E]
	limit int

	mu     sync.Mutex
	filter string
	cursor string   // cursor of the current window
	next   string   // upstream token for the following page
	stack  []string // cursors of previously seen pages, oldest first
	window Window[E]
	seq    uint64
}

// New creates a pager for the given filter tab. Call Load to fetch the
// first page.
func New[E any](fetch FetchFunc[E], filter string, limit int) *Pager[E] {
	return &Pager[E]{fetch: fetch, filter: filter, limit: limit}
}

// Current returns the current window.
func (p *Pager[E]) Current() Window[E] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window
}

// Filter returns the active filter tab.
func (p *Pager[E]) Filter() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// Load fetches the first page of the active filter.
func (p *Pager[E]) Load(ctx context.Context) error {
	p.mu.Lock()
	filter := p.filter
	req := p.begin()
	p.mu.Unlock()

	return p.apply(ctx, req, filter, "", nil)
}

// Next advances to the following page, pushing the current cursor so
// Previous can return here. A window without a next page is a no-op.
func (p *Pager[E]) Next(ctx context.Context) error {
	p.mu.Lock()
	if !p.window.HasNext {
		p.mu.Unlock()
		return nil
	}
	target := p.next
	newStack := append(append([]string(nil), p.stack...), p.cursor)
	filter := p.filter
	req := p.begin()
	p.mu.Unlock()

	return p.apply(ctx, req, filter, target, newStack)
}

// Previous returns to the page before the current one by re-fetching at the
// cursor recorded on the stack. At the first page it is a no-op.
func (p *Pager[E]) Previous(ctx context.Context) error {
	p.mu.Lock()
	if len(p.stack) == 0 {
		p.mu.Unlock()
		return nil
	}
	target := p.stack[len(p.stack)-1]
	newStack := append([]string(nil), p.stack[:len(p.stack)-1]...)
	filter := p.filter
	req := p.begin()
	p.mu.Unlock()

	return p.apply(ctx, req, filter, target, newStack)
}

// SetFilter switches the active tab: the cursor stack and position are
// discarded eagerly, so even if the first fetch of the new tab fails the
// old tab's cursors cannot be replayed under the new filter. Results from
// the old tab are never spliced in.
func (p *Pager[E]) SetFilter(ctx context.Context, filter string) error {
	p.mu.Lock()
	p.filter = filter
	p.stack = nil
	p.cursor = ""
	p.next = ""
	p.window = Window[E]{}
	req := p.begin()
	p.mu.Unlock()

	return p.apply(ctx, req, filter, "", nil)
}

// begin registers a navigation request and invalidates interest in any
// in-flight one. Caller must hold p.mu.
func (p *Pager[E]) begin() uint64 {
	p.seq++
	return p.seq
}

// apply performs the fetch and installs the result unless a newer request
// has superseded this one.
func (p *Pager[E]) apply(ctx context.Context, req uint64, filter, cursor string, newStack []string) error {
	items, next, err := p.fetch(ctx, filter, cursor, p.limit)

	p.mu.Lock()
	defer p.mu.Unlock()
	if req != p.seq {
		return nil // superseded; only the latest requested cursor is applied
	}
	if err != nil {
		return err
	}
	p.stack = newStack
	p.cursor = cursor
	p.next = next
	p.window = Window[E]{Cursor: cursor, Items: items, HasNext: next != ""}
	return nil
}
