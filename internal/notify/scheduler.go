// Package notify decides which departure reminders still need scheduling.
// Delivery to the platform notifier is behind an interface; the dedup
// decision and its per-day persisted id set live here.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"shuttle-dispatch/internal/metrics"
	"shuttle-dispatch/internal/shuttle"
)

const (
	DefaultLeadMinutes = 30
	DefaultSound       = "notify_sound_1"

	// When the lead time already passed but the trip has not, the reminder
	// still fires shortly after scheduling.
	clampDelay = 10 * time.Second
)

// Notification is one scheduled local reminder.
type Notification struct {
	ID        int64
	Title     string
	Body      string
	At        time.Time
	Sound     string // empty when sound is disabled
	ChannelID string
}

// Delivery hands a reminder to the platform notification service.
type Delivery interface {
	Schedule(ctx context.Context, n Notification) error
}

// IDStore persists the per-day sets of already-scheduled reminder ids.
type IDStore interface {
	DayIDs(day string) (map[int64]struct{}, error)
	AddDayID(day string, id int64) error
}

type Scheduler struct {
	delivery Delivery
	store    IDStore
	metrics  *metrics.Collector
	now      func() time.Time
}

func NewScheduler(delivery Delivery, store IDStore, m *metrics.Collector) *Scheduler {
	return &Scheduler{delivery: delivery, store: store, metrics: m, now: time.Now}
}

// ScheduleDeparture schedules one departure reminder unless the same
// trip-time/lead combination was already scheduled today. The dedup id is
// floor((tripTime - lead) / 1s); the day key comes from the wall clock at
// call time, not from the trip's date. Returns whether a reminder was
// actually handed to the delivery layer.
func (s *Scheduler) ScheduleDeparture(ctx context.Context, tripTime time.Time, leadMinutes int, soundEnabled bool, soundID string, skipDedup bool) (bool, error) {
	id := (tripTime.UnixMilli() - int64(leadMinutes)*60_000) / 1000
	day := shuttle.FormatDayKey(s.now())

	if !skipDedup {
		ids, err := s.store.DayIDs(day)
		if err != nil {
			log.Printf("load scheduled ids for %s: %v", day, err)
		} else if _, dup := ids[id]; dup {
			if s.metrics != nil {
				s.metrics.NotifyDeduped.Inc()
			}
			return false, nil
		}
	}

	now := s.now()
	notifyAt := tripTime.Add(-time.Duration(leadMinutes) * time.Minute)
	if notifyAt.Before(now) && tripTime.After(now) {
		notifyAt = now.Add(clampDelay)
	}
	if !tripTime.After(now) {
		return false, nil
	}

	sound := ""
	if soundEnabled {
		sound = soundID
	}
	n := Notification{
		ID:        id,
		Title:     "汐止福泰接駁車_系統通知",
		Body:      fmt.Sprintf("班次【%s 】即將發車，請準備前往接駁", shuttle.FormatClock(tripTime)),
		At:        notifyAt,
		Sound:     sound,
		ChannelID: "departures_vibrate_" + soundID,
	}
	if err := s.delivery.Schedule(ctx, n); err != nil {
		return false, err
	}
	if err := s.store.AddDayID(day, id); err != nil {
		log.Printf("record scheduled id %d for %s: %v", id, day, err)
	}
	if s.metrics != nil {
		s.metrics.NotifyScheduled.Inc()
	}
	return true, nil
}

// ScheduleToday walks the trip snapshot and schedules a reminder for every
// trip departing today that has none yet. Trip dates and today's date are
// both compared in the canonical YYYY/MM/DD form.
func (s *Scheduler) ScheduleToday(ctx context.Context, trips []shuttle.Trip, leadMinutes int, soundEnabled bool, soundID string) {
	today := shuttle.FormatDate(s.now())
	for _, t := range trips {
		if shuttle.NormalizeDate(t.Date) != today {
			continue
		}
		tripTime := time.UnixMilli(shuttle.DepartureMillis(t)).In(time.Local)
		if _, err := s.ScheduleDeparture(ctx, tripTime, leadMinutes, soundEnabled, soundID, false); err != nil {
			log.Printf("schedule reminder for trip %s: %v", t.ID, err)
		}
	}
}

// LogDelivery is the default delivery when no platform notifier is wired;
// it only records the decision.
type LogDelivery struct{}

func (LogDelivery) Schedule(_ context.Context, n Notification) error {
	log.Printf("notification %d scheduled at %s: %s", n.ID, n.At.Format(time.RFC3339), n.Body)
	return nil
}
