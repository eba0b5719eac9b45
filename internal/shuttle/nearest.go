package shuttle

import (
	"sort"
	"time"
)

// DepartureMillis resolves a trip's scheduled departure as epoch millis.
func DepartureMillis(t Trip) int64 {
	return ParseDateTime(NormalizeDate(t.Date) + " " + NormalizeTime(t.Time))
}

// DepartureString renders the trip's canonical "YYYY/MM/DD HH:MM" key used
// to match a passenger's main datetime against a trip.
func DepartureString(t Trip) string {
	return NormalizeDate(t.Date) + " " + NormalizeTime(t.Time)
}

// NearestTrip picks the trip whose scheduled departure is closest to now.
// When a past and a future trip are equally distant, the past trip wins.
// Returns nil for an empty list.
func NearestTrip(trips []Trip, now time.Time) *Trip {
	if len(trips) == 0 {
		return nil
	}
	nowMs := now.UnixMilli()
	var bestFuture, lastPast *Trip
	var bestFutureMs, lastPastMs int64
	for i := range trips {
		ts := DepartureMillis(trips[i])
		if ts >= nowMs {
			if bestFuture == nil || ts < bestFutureMs {
				bestFuture, bestFutureMs = &trips[i], ts
			}
		} else {
			if lastPast == nil || ts > lastPastMs {
				lastPast, lastPastMs = &trips[i], ts
			}
		}
	}
	if bestFuture != nil && lastPast != nil {
		if nowMs-lastPastMs <= bestFutureMs-nowMs {
			return lastPast
		}
		return bestFuture
	}
	if bestFuture != nil {
		return bestFuture
	}
	return lastPast
}

// FirstTrip returns the earliest trip by date then time, or nil.
func FirstTrip(trips []Trip) *Trip {
	if len(trips) == 0 {
		return nil
	}
	sorted := make([]Trip, len(trips))
	copy(sorted, trips)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Time < sorted[j].Time
	})
	first := sorted[0]
	return &first
}
