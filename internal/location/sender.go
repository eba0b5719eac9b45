// Package location rate-limits and debounces GPS uploads, resolves the
// active positioning provider, and watches recent fixes for the
// auto-shutdown decision.
package location

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"shuttle-dispatch/internal/api"
	"shuttle-dispatch/internal/metrics"
)

const (
	DefaultDebounce    = time.Second
	DefaultProviderTTL = 5 * time.Second
	DefaultMinInterval = 3 * time.Minute
)

// PrefStore reads the persisted provider preference flags.
type PrefStore interface {
	GetBool(key string) (bool, error)
}

// Uploader is the server boundary a fix is reported to.
type Uploader interface {
	SendLocation(ctx context.Context, report api.LocationReport) error
}

type sendCall struct {
	done chan struct{}
	fix  *Fix
}

// Sender coalesces, rate-limits, and deduplicates location uploads.
//
// Non-forced sends within the debounce window collapse into one device read
// and upload; a non-forced send inside the minimum interval answers with
// the last sent fix without touching the device. Forced sends bypass both.
// Concurrent sends sharing a request key (trip id + force flag) await one
// in-flight result. Failures yield nil and leave the last-sent cache alone.
type Sender struct {
	uploader    Uploader
	prefs       PrefStore
	primary     Provider
	secondary   Provider
	debounce    time.Duration
	providerTTL time.Duration
	metrics     *metrics.Collector
	now         func() time.Time

	mu         sync.Mutex
	lastSentAt int64 // epoch millis, 0 = never
	lastSent   *Fix
	choice     string
	choiceAt   int64
	inflight   map[string]*sendCall

	debTimer *time.Timer
	debCall  *sendCall
	debTrip  string
	debMin   time.Duration
}

func NewSender(uploader Uploader, prefs PrefStore, primary, secondary Provider, m *metrics.Collector) *Sender {
	return &Sender{
		uploader:    uploader,
		prefs:       prefs,
		primary:     primary,
		secondary:   secondary,
		debounce:    DefaultDebounce,
		providerTTL: DefaultProviderTTL,
		metrics:     m,
		now:         time.Now,
		inflight:    make(map[string]*sendCall),
	}
}

// Send reads and uploads the current position for tripID. minInterval only
// gates non-forced sends. Returns the sent (or cached) fix, or nil when
// both the read and the upload path failed.
func (s *Sender) Send(ctx context.Context, tripID string, force bool, minInterval time.Duration) *Fix {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if force {
		return s.execute(ctx, tripID, true, minInterval)
	}

	s.mu.Lock()
	if s.debCall == nil {
		s.debCall = &sendCall{done: make(chan struct{})}
		s.debTimer = time.AfterFunc(s.debounce, s.fireDebounce)
	} else {
		s.debTimer.Reset(s.debounce)
	}
	s.debTrip = tripID
	s.debMin = minInterval
	c := s.debCall
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil
	case <-c.done:
		return c.fix
	}
}

// LastKnown answers "where was the vehicle last reported" without a new
// device read.
func (s *Sender) LastKnown() *Fix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSent
}

// ClearProviderCache drops the cached provider choice; call it when the
// preference flags change.
func (s *Sender) ClearProviderCache() {
	s.mu.Lock()
	s.choice = ""
	s.choiceAt = 0
	s.mu.Unlock()
}

func (s *Sender) fireDebounce() {
	s.mu.Lock()
	c := s.debCall
	tripID, minInterval := s.debTrip, s.debMin
	s.debCall = nil
	s.debTimer = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	c.fix = s.execute(context.Background(), tripID, false, minInterval)
	close(c.done)
}

func (s *Sender) execute(ctx context.Context, tripID string, force bool, minInterval time.Duration) *Fix {
	key := fmt.Sprintf("location_%s_%t", orNone(tripID), force)

	s.mu.Lock()
	if c, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		<-c.done
		return c.fix
	}
	c := &sendCall{done: make(chan struct{})}
	s.inflight[key] = c
	s.mu.Unlock()

	fix := s.doSend(ctx, tripID, force, minInterval)

	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
	c.fix = fix
	close(c.done)
	return fix
}

func (s *Sender) doSend(ctx context.Context, tripID string, force bool, minInterval time.Duration) *Fix {
	nowMs := s.now().UnixMilli()

	if !force {
		s.mu.Lock()
		lastAt, last := s.lastSentAt, s.lastSent
		s.mu.Unlock()
		if lastAt > 0 && nowMs-lastAt < minInterval.Milliseconds() {
			if s.metrics != nil {
				s.metrics.LocationSkips.Inc()
			}
			return last
		}
	}

	provider := s.pickProvider(nowMs)
	effective := provider
	deviceID := ""

	fix, err := provider.Current(ctx)
	if err != nil && provider != s.primary {
		log.Printf("provider %s unavailable, falling back to %s: %v", provider.Name(), s.primary.Name(), err)
		effective = s.primary
		fix, err = s.primary.Current(ctx)
	}
	if err != nil {
		log.Printf("location read failed: %v", err)
		if s.metrics != nil {
			s.metrics.LocationSendErrs.Inc()
		}
		return nil
	}
	if effective != s.primary {
		if id, derr := effective.DeviceID(ctx); derr == nil {
			deviceID = id
		}
	}
	fix.Provider = effective.Name()
	fix.DeviceID = deviceID

	report := api.LocationReport{
		Lat:       fix.Lat,
		Lng:       fix.Lng,
		Timestamp: fix.Timestamp,
		TripID:    tripID,
		Provider:  effective.Name(),
		DeviceID:  deviceID,
	}
	if err := s.uploader.SendLocation(ctx, report); err != nil {
		log.Printf("location upload failed: %v", err)
		if s.metrics != nil {
			s.metrics.LocationSendErrs.Inc()
		}
		return nil
	}

	s.mu.Lock()
	s.lastSentAt = nowMs
	s.lastSent = &fix
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.LocationSends.Inc()
	}
	return &fix
}

// pickProvider resolves the active provider, caching the preference lookup
// for a short TTL. The secondary provider wins when its flag is enabled.
func (s *Sender) pickProvider(nowMs int64) Provider {
	s.mu.Lock()
	if s.choiceAt > 0 && nowMs-s.choiceAt < s.providerTTL.Milliseconds() {
		choice := s.choice
		s.mu.Unlock()
		return s.byName(choice)
	}
	s.mu.Unlock()

	choice := "primary"
	if s.secondary != nil && s.prefs != nil {
		if on, err := s.prefs.GetBool(PrefSecondaryEnabled); err == nil && on {
			choice = "secondary"
		}
	}

	s.mu.Lock()
	s.choice = choice
	s.choiceAt = nowMs
	s.mu.Unlock()
	return s.byName(choice)
}

func (s *Sender) byName(choice string) Provider {
	if choice == "secondary" && s.secondary != nil {
		return s.secondary
	}
	return s.primary
}

func orNone(tripID string) string {
	if tripID == "" {
		return "none"
	}
	return tripID
}
