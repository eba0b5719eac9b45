// Package sync merges the three raw server collections into the consistent
// in-memory view the rest of the core works from.
package sync

import (
	"strings"

	"shuttle-dispatch/internal/api"
	"shuttle-dispatch/internal/shuttle"
)

// Dataset is one reconciled snapshot. TripPassengers carries one entry per
// trip-scoped leg record; AllPassengers carries at least one entry for every
// booking code appearing anywhere in the input.
type Dataset struct {
	Trips          []shuttle.Trip
	TripPassengers []shuttle.Passenger
	AllPassengers  []shuttle.Passenger
}

func (d Dataset) Empty() bool {
	return len(d.Trips) == 0 && len(d.TripPassengers) == 0 && len(d.AllPassengers) == 0
}

type tripInfo struct {
	date string
	time string
}

// Reconcile transforms one raw payload into the canonical collections.
// It is pure: identical input yields identical output.
func Reconcile(data api.DriverData) Dataset {
	ds := Dataset{
		Trips:          make([]shuttle.Trip, 0, len(data.Trips)),
		TripPassengers: make([]shuttle.Passenger, 0, len(data.TripPassengers)),
		AllPassengers:  make([]shuttle.Passenger, 0, len(data.PassengerList)),
	}

	tripMap := make(map[string]tripInfo, len(data.Trips))
	for _, t := range data.Trips {
		date := shuttle.NormalizeDate(t.Date)
		ds.Trips = append(ds.Trips, shuttle.Trip{
			ID:     t.TripID,
			Date:   date,
			Time:   t.Time,
			Booked: int(t.TotalPax),
		})
		tripMap[t.TripID] = tripInfo{date: date, time: t.Time}
	}

	details := make(map[string]api.PassengerRecord, len(data.PassengerList))
	for _, p := range data.PassengerList {
		details[p.BookingID] = p
	}

	for _, p := range data.TripPassengers {
		d, hasDetail := details[p.BookingID]
		dt := derivedDatetime(tripMap, p.TripID)
		if hasDetail && d.MainDatetime != "" {
			dt = shuttle.NormalizeDateTime(shuttle.NormalizeDate(d.MainDatetime))
		}
		ds.TripPassengers = append(ds.TripPassengers, shuttle.Passenger{
			ID:           p.BookingID,
			TripID:       p.TripID,
			BookingCode:  p.BookingID,
			Name:         p.Name,
			Phone:        p.Phone,
			Room:         p.Room,
			Pax:          paxOrOne(p.Pax),
			Station:      p.Station,
			Direction:    p.Direction,
			UpDown:       p.UpDown,
			Status:       shuttle.StatusFromText(p.Status),
			HotelGo:      d.HotelGo,
			MRT:          d.MRT,
			Train:        d.Train,
			Mall:         d.Mall,
			HotelBack:    d.HotelBack,
			MainDatetime: dt,
		})
	}

	// Global view: the detail list first, then every leg-only booking,
	// so no booking code is silently dropped.
	processed := make(map[string]struct{}, len(data.PassengerList))
	for _, p := range data.PassengerList {
		processed[p.BookingID] = struct{}{}
		dt := ""
		if p.MainDatetime != "" {
			dt = shuttle.NormalizeDateTime(shuttle.NormalizeDate(p.MainDatetime))
		} else {
			// First trip-scoped record wins; the input order dependency is
			// deliberate and covered by tests.
			for _, tp := range data.TripPassengers {
				if tp.BookingID == p.BookingID {
					dt = derivedDatetime(tripMap, tp.TripID)
					break
				}
			}
		}
		ds.AllPassengers = append(ds.AllPassengers, shuttle.Passenger{
			ID:           p.BookingID,
			BookingCode:  p.BookingID,
			Name:         p.Name,
			Phone:        p.Phone,
			Room:         p.Room,
			Pax:          paxOrOne(p.Pax),
			Direction:    p.Direction,
			Status:       shuttle.StatusFromText(p.RideStatus),
			HotelGo:      p.HotelGo,
			MRT:          p.MRT,
			Train:        p.Train,
			Mall:         p.Mall,
			HotelBack:    p.HotelBack,
			MainDatetime: dt,
		})
	}

	for _, p := range data.TripPassengers {
		if _, ok := processed[p.BookingID]; ok {
			continue
		}
		processed[p.BookingID] = struct{}{}
		pax := shuttle.Passenger{
			ID:           p.BookingID,
			TripID:       p.TripID,
			BookingCode:  p.BookingID,
			Name:         p.Name,
			Phone:        p.Phone,
			Room:         p.Room,
			Pax:          paxOrOne(p.Pax),
			Direction:    p.Direction,
			Status:       shuttle.StatusFromText(p.Status),
			MainDatetime: derivedDatetime(tripMap, p.TripID),
		}
		inferWaypoints(&pax, p.Station, p.UpDown, p.Direction)
		ds.AllPassengers = append(ds.AllPassengers, pax)
	}

	return ds
}

func derivedDatetime(tripMap map[string]tripInfo, tripID string) string {
	info, ok := tripMap[tripID]
	if !ok {
		return ""
	}
	return shuttle.NormalizeDate(info.date) + " " + shuttle.NormalizeTime(info.time)
}

// inferWaypoints fills the five markers for a booking that only exists at
// the per-leg level, from the single leg's station text. Hotel legs resolve
// to the outbound or return marker by direction, falling back to the
// up/down action when direction is absent.
func inferWaypoints(p *shuttle.Passenger, station, upDown, direction string) {
	s := strings.TrimSpace(station)
	has := func(sub string) bool { return strings.Contains(s, sub) }

	switch {
	case has("福泰") || has("Forte"):
		switch direction {
		case shuttle.DirectionOutbound:
			p.HotelGo = upDown
		case shuttle.DirectionReturn:
			p.HotelBack = upDown
		default:
			if upDown == shuttle.ActionBoard {
				p.HotelGo = upDown
			} else {
				p.HotelBack = upDown
			}
		}
	case has("捷運") || has("Exhibition"):
		p.MRT = upDown
	case has("火車") || has("Train"):
		p.Train = upDown
	case has("LaLaport") || has("Lalaport"):
		p.Mall = upDown
	}
}

func paxOrOne(v api.FlexInt) int {
	if v <= 0 {
		return 1
	}
	return int(v)
}
