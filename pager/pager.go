// Package pager implements token-continuation paging for list operations.
//
// A Pager walks a listing page by page through a FetchFunc; Items flattens
// the pages into a single pull-based item stream with the same Next shape
// the rest of the module uses for streamed results.
package pager

import "context"

// Page is one service response worth of items plus the continuation token
// for the next page. An empty token means the listing is complete.
type Page[T any] struct {
	Items             []T
	ContinuationToken string
}

// FetchFunc retrieves one page. token is empty for the first page and
// carries the previous page's continuation token afterwards.
type FetchFunc[T any] func(ctx context.Context, token string) (Page[T], error)

// Pager walks a paginated listing. It is not safe for concurrent use.
type Pager[T any] struct {
	fetch FetchFunc[T]
	token string
	done  bool
	err   error
}

// New builds a pager over fetch.
func New[T any](fetch FetchFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch}
}

// NewFromToken builds a pager that resumes a listing from a previously
// returned continuation token.
func NewFromToken[T any](fetch FetchFunc[T], token string) *Pager[T] {
	return &Pager[T]{fetch: fetch, token: token}
}

// More reports whether another page may be available. It is true before the
// first fetch and stays true until a page arrives without a continuation
// token or a fetch fails.
func (p *Pager[T]) More() bool {
	return !p.done && p.err == nil
}

// ContinuationToken returns the token the next fetch would use. Callers can
// checkpoint it and resume later with NewFromToken.
func (p *Pager[T]) ContinuationToken() string {
	return p.token
}

// NextPage fetches the next page. Returns ok=false once the listing is
// exhausted. A fetch error is sticky: every later call returns it again
// without fetching.
func (p *Pager[T]) NextPage(ctx context.Context) (Page[T], bool, error) {
	var zero Page[T]
	if p.err != nil {
		return zero, false, p.err
	}
	if p.done {
		return zero, false, nil
	}
	page, err := p.fetch(ctx, p.token)
	if err != nil {
		p.err = err
		return zero, false, err
	}
	p.token = page.ContinuationToken
	if p.token == "" {
		p.done = true
	}
	return page, true, nil
}

// Items returns an item-level iterator over the remaining pages.
func (p *Pager[T]) Items() *Items[T] {
	return &Items[T]{pager: p}
}

// Items flattens a pager into a single item stream. It is not safe for
// concurrent use.
type Items[T any] struct {
	pager *Pager[T]
	buf   []T
	idx   int
}

// Next returns the next item, fetching pages as needed. Returns
// (zero, false, nil) once every page is spent. Empty pages with a
// continuation token are skipped. Fetch errors are sticky.
func (it *Items[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for it.idx >= len(it.buf) {
		page, ok, err := it.pager.NextPage(ctx)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			return zero, false, nil
		}
		it.buf = page.Items
		it.idx = 0
	}
	v := it.buf[it.idx]
	it.idx++
	return v, true, nil
}

// Collect gathers every remaining item into a slice. On error it returns
// the items gathered so far alongside the error.
func (it *Items[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// ForEach applies fn to every remaining item, stopping at the first error
// from either the listing or the callback.
func (it *Items[T]) ForEach(ctx context.Context, fn func(T) error) error {
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

// Close releases the iterator. A pager holds no resources; Close exists so
// item streams and download streams share a shape.
func (it *Items[T]) Close() error {
	it.buf = nil
	it.idx = 0
	return nil
}
