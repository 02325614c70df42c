package client

import (
	"context"
	"errors"
	"sync"
)

// ErrReadDisabled is returned by id-keyed reads given a non-positive id; the
// read never reaches the transport.
var ErrReadDisabled = errors.New("read disabled: id must be positive")

// Queries binds the fetch functions to one QueryCache: reads are cached
// under deterministic keys, deduplicated while in flight, and dropped by
// explicit invalidation. Commands live on Client and never touch the cache;
// after a successful command the caller invalidates and refetches.
type Queries struct {
	client *Client
	cache  *QueryCache

	mu       sync.Mutex
	lastPage *ApprovalPage
}

// NewQueries creates a Queries facade over client with its own cache.
func NewQueries(client *Client) *Queries {
	return &Queries{client: client, cache: NewQueryCache()}
}

// List returns one page of approvals. On a fetch failure, the last
// successfully fetched page (under any key) is returned alongside the error
// so consumers can keep previous data visible instead of flickering empty.
func (q *Queries) List(ctx context.Context, p ListParams) (*ApprovalPage, error) {
	page, err := Fetch(ctx, q.cache, ListKey(p), func(ctx context.Context) (*ApprovalPage, error) {
		return q.client.List(ctx, p)
	})
	if err != nil {
		q.mu.Lock()
		previous := q.lastPage
		q.mu.Unlock()
		return previous, err
	}

	q.mu.Lock()
	q.lastPage = page
	q.mu.Unlock()
	return page, nil
}

// Detail returns one approval with levels. Disabled for non-positive ids.
func (q *Queries) Detail(ctx context.Context, id int64) (*Approval, error) {
	if !ReadEnabled(id) {
		return nil, ErrReadDisabled
	}
	return Fetch(ctx, q.cache, DetailKey(id), func(ctx context.Context) (*Approval, error) {
		return q.client.Detail(ctx, id)
	})
}

// History returns the audit trail. Disabled for non-positive ids.
func (q *Queries) History(ctx context.Context, id int64) ([]ApprovalHistory, error) {
	if !ReadEnabled(id) {
		return nil, ErrReadDisabled
	}
	return Fetch(ctx, q.cache, HistoryKey(id), func(ctx context.Context) ([]ApprovalHistory, error) {
		return q.client.History(ctx, id)
	})
}

// PendingCount returns the caller's pending decision count. Consumers poll
// this on a short interval; each poll should invalidate first to bypass the
// cached value.
func (q *Queries) PendingCount(ctx context.Context) (int, error) {
	return Fetch(ctx, q.cache, PendingCountKey(), func(ctx context.Context) (int, error) {
		return q.client.PendingCount(ctx)
	})
}

// InvalidateAll drops every cached approval read.
func (q *Queries) InvalidateAll() {
	q.cache.Invalidate(AllKey())
}

// InvalidateLists drops all cached list pages.
func (q *Queries) InvalidateLists() {
	q.cache.Invalidate(newKey(keyDomain, "list"))
}

// InvalidateDetail drops the cached detail and history of one approval.
func (q *Queries) InvalidateDetail(id int64) {
	q.cache.Invalidate(DetailKey(id))
	q.cache.Invalidate(HistoryKey(id))
}

// InvalidatePendingCount drops the cached pending count so the next poll
// refetches.
func (q *Queries) InvalidatePendingCount() {
	q.cache.Invalidate(PendingCountKey())
}
