package sync

import (
	"context"
	"log"
	"sync"
	"time"

	"shuttle-dispatch/internal/api"
	"shuttle-dispatch/internal/metrics"
)

// Fetcher is the upstream boundary the syncer pulls from.
type Fetcher interface {
	FetchDriverData(ctx context.Context) (api.DriverData, error)
}

// Syncer runs the fetch-and-reconcile operation. Callers invoking Sync
// while one is already in flight receive that call's eventual result
// instead of issuing a duplicate upstream request. An upstream failure
// yields three empty collections; callers must treat an empty dataset as
// "sync failed", not as "no data exists".
type Syncer struct {
	fetcher Fetcher
	metrics *metrics.Collector

	mu       sync.Mutex
	inflight *syncCall
}

type syncCall struct {
	done chan struct{}
	ds   Dataset
}

func NewSyncer(fetcher Fetcher, m *metrics.Collector) *Syncer {
	return &Syncer{fetcher: fetcher, metrics: m}
}

func (s *Syncer) Sync(ctx context.Context) Dataset {
	s.mu.Lock()
	if c := s.inflight; c != nil {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.SyncsCoalesced.Inc()
		}
		<-c.done
		return c.ds
	}
	c := &syncCall{done: make(chan struct{})}
	s.inflight = c
	s.mu.Unlock()

	start := time.Now()
	data, err := s.fetcher.FetchDriverData(ctx)
	if err != nil {
		log.Printf("data sync failed: %v", err)
		if s.metrics != nil {
			s.metrics.SyncFailures.Inc()
		}
	} else {
		c.ds = Reconcile(data)
		if s.metrics != nil {
			s.metrics.SyncsTotal.Inc()
			s.metrics.SyncDuration.Observe(time.Since(start).Seconds())
		}
	}

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()
	close(c.done)
	return c.ds
}
