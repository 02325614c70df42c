package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestFetchCachesSuccessfulResult(t *testing.T) {
	cache := NewQueryCache()
	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return 41 + calls, nil
	}

	got, err := Fetch(context.Background(), cache, DetailKey(1), fn)
	if err != nil || got != 42 {
		t.Fatalf("Fetch() = %d, %v", got, err)
	}
	got, err = Fetch(context.Background(), cache, DetailKey(1), fn)
	if err != nil || got != 42 {
		t.Fatalf("second Fetch() = %d, %v", got, err)
	}
	if calls != 1 {
		t.Errorf("fetch fn ran %d times, want 1", calls)
	}
}

func TestFetchDoesNotCacheFailures(t *testing.T) {
	cache := NewQueryCache()
	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("boom")
		}
		return 7, nil
	}

	if _, err := Fetch(context.Background(), cache, DetailKey(2), fn); err == nil {
		t.Fatal("first Fetch() = nil, want error")
	}
	got, err := Fetch(context.Background(), cache, DetailKey(2), fn)
	if err != nil || got != 7 {
		t.Fatalf("retry Fetch() = %d, %v", got, err)
	}
}

func TestFetchDeduplicatesInFlight(t *testing.T) {
	cache := NewQueryCache()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 99, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(context.Background(), cache, PendingCountKey(), fn)
			if err != nil {
				t.Errorf("Fetch() = %v", err)
				return
			}
			results[i] = v
		}(i)
	}

	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch fn ran %d times, want 1", got)
	}
	for i, v := range results {
		if v != 99 {
			t.Errorf("results[%d] = %d, want 99", i, v)
		}
	}
}

func TestInvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	cache := NewQueryCache()
	put := func(key Key, v int) {
		if _, err := Fetch(ctx, cache, key, func(context.Context) (int, error) { return v, nil }); err != nil {
			t.Fatalf("seed %q: %v", key, err)
		}
	}

	put(ListKey(ListParams{Page: 1}), 1)
	put(ListKey(ListParams{Page: 2}), 2)
	put(DetailKey(7), 3)
	put(PendingCountKey(), 4)

	if dropped := cache.Invalidate(newKey(keyDomain, "list")); dropped != 2 {
		t.Errorf("Invalidate(list) dropped %d, want 2", dropped)
	}
	if _, ok := Cached[int](cache, DetailKey(7)); !ok {
		t.Error("detail entry dropped by list invalidation")
	}

	if dropped := cache.Invalidate(AllKey()); dropped != 2 {
		t.Errorf("Invalidate(all) dropped %d, want 2", dropped)
	}
	if cache.Len() != 0 {
		t.Errorf("cache has %d entries after full invalidation", cache.Len())
	}
}

func TestQueriesDetailDisabledForNonPositiveID(t *testing.T) {
	doer := &countingDoer{}
	q := NewQueries(New("http://example.invalid/api/v1", WithHTTPClient(doer)))

	if _, err := q.Detail(context.Background(), 0); !errors.Is(err, ErrReadDisabled) {
		t.Errorf("Detail(0) err = %v, want ErrReadDisabled", err)
	}
	if _, err := q.History(context.Background(), -1); !errors.Is(err, ErrReadDisabled) {
		t.Errorf("History(-1) err = %v, want ErrReadDisabled", err)
	}
	if doer.calls != 0 {
		t.Errorf("disabled reads reached the transport %d times", doer.calls)
	}
}

func TestQueriesListKeepsPreviousPageOnFailure(t *testing.T) {
	good := &ApprovalPage{Pagination: Pagination{Total: 1, Page: 1, Size: 10}}
	q := &Queries{cache: NewQueryCache()}
	q.lastPage = good
	q.client = New("http://example.invalid/api/v1", WithHTTPClient(&countingDoer{}))

	page, err := q.List(context.Background(), ListParams{Page: 2})
	if err == nil {
		t.Fatal("List() = nil error, want transport failure")
	}
	if page != good {
		t.Errorf("List() page = %v, want previous page", page)
	}
}
