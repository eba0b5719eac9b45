package shuttle

import "strings"

// Status is the inferred boarding state of a booking.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusBoarded   Status = "boarded"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Server-side free-text markers the status derivation keys on.
const (
	boardedText = "已上車"
	noShowText  = "No-show"
)

// Direction and up/down action labels as the server sends them.
const (
	DirectionOutbound = "去程"
	DirectionReturn   = "回程"
	ActionBoard       = "上車"
	ActionAlight      = "下車"
)

type Trip struct {
	ID     string
	Date   string // YYYY/MM/DD
	Time   string // HH:MM
	Booked int    // total booked pax
}

// Passenger is one booking as seen from either the trip-scoped roster or
// the global passenger list. BookingCode is unique per booking, not per
// trip; the same booking can appear once per leg in the trip view.
type Passenger struct {
	ID          string
	TripID      string // empty in the global view
	BookingCode string
	Name        string
	Phone       string
	Room        string
	Pax         int
	Station     string
	Direction   string
	UpDown      string
	Status      Status

	// Per-leg waypoint markers from the global detail record.
	HotelGo   string
	MRT       string
	Train     string
	Mall      string
	HotelBack string

	MainDatetime string // canonical "YYYY/MM/DD HH:MM"
}

// StatusFromText derives a Status from the server's free-text status field.
// The boarded marker is checked before the no-show marker; anything else is
// treated as booked, including the empty string.
func StatusFromText(raw string) Status {
	if strings.Contains(raw, boardedText) {
		return StatusBoarded
	}
	if strings.Contains(raw, noShowText) {
		return StatusNoShow
	}
	return StatusBooked
}
