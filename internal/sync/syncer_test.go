package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shuttle-dispatch/internal/api"
)

type fakeFetcher struct {
	calls   atomic.Int64
	release chan struct{}
	data    api.DriverData
	err     error
}

func (f *fakeFetcher) FetchDriverData(ctx context.Context) (api.DriverData, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.data, f.err
}

func TestSyncCoalescesConcurrentCalls(t *testing.T) {
	f := &fakeFetcher{
		release: make(chan struct{}),
		data: api.DriverData{
			Trips: []api.TripRecord{{TripID: "t1", Date: "2025/12/08", Time: "08:00"}},
		},
	}
	s := NewSyncer(f, nil)

	const n = 5
	results := make([]Dataset, n)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = s.Sync(context.Background())
	}()
	// Wait until the first call is blocked inside the fetcher, then pile
	// the rest on so they hit the in-flight path.
	for f.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Sync(context.Background())
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()

	if got := f.calls.Load(); got != 1 {
		t.Fatalf("upstream fetched %d times, want 1", got)
	}
	for i, ds := range results {
		if len(ds.Trips) != 1 {
			t.Errorf("caller %d got %d trips, want 1", i, len(ds.Trips))
		}
	}
}

func TestSyncFailureYieldsEmptyDataset(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	s := NewSyncer(f, nil)
	ds := s.Sync(context.Background())
	if !ds.Empty() {
		t.Errorf("failed sync should yield an empty dataset: %+v", ds)
	}
}

func TestSyncRunsAgainAfterCompletion(t *testing.T) {
	f := &fakeFetcher{
		data: api.DriverData{Trips: []api.TripRecord{{TripID: "t1"}}},
	}
	s := NewSyncer(f, nil)
	s.Sync(context.Background())
	s.Sync(context.Background())
	if got := f.calls.Load(); got != 2 {
		t.Errorf("sequential syncs fetched %d times, want 2", got)
	}
}
