package suggestion

import (
	"context"
	"errors"
	"sync"

	"github.com/hakbangquest/hakbangweb/internal/domain/models"
)

// ErrLoadInProgress is returned when LoadMore is called while a load is
// already outstanding.
var ErrLoadInProgress = errors.New("suggestion: load already in progress")

// ErrPagerClosed is returned once the pager has been closed. A load that
// completes after Close is discarded.
var ErrPagerClosed = errors.New("suggestion: pager closed")

// PageFetcher is implemented by Repository.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor Cursor, pageSize int) (Page, error)
}

// PagerState is Idle or Loading. An Idle pager with a non-nil Err is the
// error state; it stays usable.
type PagerState int

const (
	Idle PagerState = iota
	Loading
)

// PagerView is a point-in-time copy of the pager's state.
type PagerView struct {
	State   PagerState
	Items   []models.Suggestion
	HasMore bool
	Err     error
}

// Pager accumulates pages for a "load more" style view.
//
// On success items are appended, the cursor is replaced and HasMore is
// recomputed. On failure items and cursor are left untouched, so calling
// LoadMore again retries the same page. HasMore=false makes LoadMore a no-op.
type Pager struct {
	fetch    PageFetcher
	pageSize int

	mu      sync.Mutex
	state   PagerState
	items   []models.Suggestion
	cursor  Cursor
	hasMore bool
	err     error
	closed  bool
}

// NewPager returns an Idle pager positioned before the first page.
func NewPager(fetch PageFetcher, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{fetch: fetch, pageSize: pageSize, hasMore: true}
}

// LoadMore fetches the next page and returns the items it added.
func (p *Pager) LoadMore(ctx context.Context) ([]models.Suggestion, error) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return nil, ErrPagerClosed
	case p.state == Loading:
		p.mu.Unlock()
		return nil, ErrLoadInProgress
	case !p.hasMore:
		p.mu.Unlock()
		return nil, nil
	}
	p.state = Loading
	cursor := p.cursor
	p.mu.Unlock()

	page, err := p.fetch.FetchPage(ctx, cursor, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPagerClosed
	}
	p.state = Idle
	if err != nil {
		p.err = err
		return nil, err
	}

	p.err = nil
	p.items = append(p.items, page.Items...)
	if !page.NextCursor.IsZero() {
		p.cursor = page.NextCursor
	}
	p.hasMore = page.HasMore
	return page.Items, nil
}

// HasMore reports whether another LoadMore may return items.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore && !p.closed
}

// View returns a copy of the current state.
func (p *Pager) View() PagerView {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]models.Suggestion, len(p.items))
	copy(items, p.items)
	return PagerView{State: p.state, Items: items, HasMore: p.hasMore, Err: p.err}
}

// Close detaches the pager from its consumer. Results of in-flight loads
// are dropped.
func (p *Pager) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Drain loads every remaining page, calling fn with each batch.
// It stops at the first error from the store, from fn, or from ctx.
func (p *Pager) Drain(ctx context.Context, fn func([]models.Suggestion) error) error {
	for p.HasMore() {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := p.LoadMore(ctx)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			continue
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}
