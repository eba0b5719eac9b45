package sync

import (
	"sync"

	"shuttle-dispatch/internal/shuttle"
)

// State is the single source of truth for the reconciled collections.
// Optimistic edits (scan confirmations, manual actions) mutate it in place;
// the next successful sync replaces it wholesale, so a sync always wins
// over unflushed local edits.
type State struct {
	mu sync.Mutex
	ds Dataset
}

func NewState() *State {
	return &State{}
}

// Replace installs a freshly reconciled dataset. Empty datasets signal a
// failed sync and are ignored so the prior view survives; the return value
// reports whether the snapshot was installed.
func (s *State) Replace(ds Dataset) bool {
	if ds.Empty() {
		return false
	}
	s.mu.Lock()
	s.ds = ds
	s.mu.Unlock()
	return true
}

// Trips returns a copy of the current trip snapshot.
func (s *State) Trips() []shuttle.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shuttle.Trip, len(s.ds.Trips))
	copy(out, s.ds.Trips)
	return out
}

// TripPassengers returns the per-leg entries for one trip.
func (s *State) TripPassengers(tripID string) []shuttle.Passenger {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []shuttle.Passenger
	for _, p := range s.ds.TripPassengers {
		if p.TripID == tripID {
			out = append(out, p)
		}
	}
	return out
}

// AllPassengers returns a copy of the global passenger view.
func (s *State) AllPassengers() []shuttle.Passenger {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shuttle.Passenger, len(s.ds.AllPassengers))
	copy(out, s.ds.AllPassengers)
	return out
}

// FindBooking resolves a booking code, preferring the global view over the
// trip-scoped one. Returns nil when the code is unknown.
func (s *State) FindBooking(code string) *shuttle.Passenger {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ds.AllPassengers {
		if s.ds.AllPassengers[i].BookingCode == code {
			p := s.ds.AllPassengers[i]
			return &p
		}
	}
	for i := range s.ds.TripPassengers {
		if s.ds.TripPassengers[i].BookingCode == code {
			p := s.ds.TripPassengers[i]
			return &p
		}
	}
	return nil
}

// SetStatus applies an optimistic status edit to every view holding the
// booking. It reports whether any entry matched.
func (s *State) SetStatus(code string, status shuttle.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.ds.TripPassengers {
		if s.ds.TripPassengers[i].BookingCode == code {
			s.ds.TripPassengers[i].Status = status
			found = true
		}
	}
	for i := range s.ds.AllPassengers {
		if s.ds.AllPassengers[i].BookingCode == code {
			s.ds.AllPassengers[i].Status = status
			found = true
		}
	}
	return found
}

// MarkBoarded is the optimistic edit a confirmed scan applies.
func (s *State) MarkBoarded(code string) bool {
	return s.SetStatus(code, shuttle.StatusBoarded)
}

// TripTotalPax sums party sizes for one trip, counting each booking once
// and preferring its boarding-leg entry when the booking rides several legs.
func (s *State) TripTotalPax(tripID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	perBooking := make(map[string]int)
	for _, p := range s.ds.TripPassengers {
		if p.TripID != tripID {
			continue
		}
		if _, ok := perBooking[p.BookingCode]; !ok || p.UpDown == shuttle.ActionBoard {
			perBooking[p.BookingCode] = p.Pax
		}
	}
	total := 0
	for _, n := range perBooking {
		total += n
	}
	return total
}
