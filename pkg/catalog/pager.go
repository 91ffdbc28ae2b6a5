package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/masonry/pkg/core/layout"
)

// Pager fetches consecutive pages from a Source.
//
// Only one fetch runs at a time: a call to Next while another is in flight
// returns immediately with no items. Once a page comes back empty the pager
// is exhausted until Reset.
type Pager struct {
	src   Source
	batch int

	fetching atomic.Bool

	mu        sync.Mutex
	offset    int
	exhausted bool
}

// NewPager creates a pager over src. A batch size below 1 uses
// DefaultBatchSize.
func NewPager(src Source, batchSize int) *Pager {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Pager{src: src, batch: batchSize}
}

// Next fetches the page after the last one returned.
func (p *Pager) Next(ctx context.Context) ([]layout.Item, error) {
	if !p.fetching.CompareAndSwap(false, true) {
		return nil, nil
	}
	defer p.fetching.Store(false)

	p.mu.Lock()
	offset, exhausted := p.offset, p.exhausted
	p.mu.Unlock()
	if exhausted {
		return nil, nil
	}

	items, err := p.src.Load(ctx, p.batch, offset)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(items) == 0 {
		p.exhausted = true
		return nil, nil
	}
	p.offset = offset + len(items)
	return items, nil
}

// Reset rewinds to the first page and fetches it.
func (p *Pager) Reset(ctx context.Context) ([]layout.Item, error) {
	p.mu.Lock()
	p.offset = 0
	p.exhausted = false
	p.mu.Unlock()
	return p.Next(ctx)
}

// Fetching reports whether a fetch is in flight.
func (p *Pager) Fetching() bool { return p.fetching.Load() }

// Exhausted reports whether the last fetch returned no items.
func (p *Pager) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Offset returns the number of items fetched so far.
func (p *Pager) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Source returns the underlying source.
func (p *Pager) Source() Source { return p.src }
