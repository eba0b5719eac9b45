package shuttle

import "strings"

// Canonical station labels in boarding order.
const (
	StationHotelOutbound = "1. 福泰大飯店 (去)"
	StationMetro         = "2. 南港捷運站"
	StationTrain         = "3. 南港火車站"
	StationMall          = "4. LaLaport 購物中心"
	StationHotelReturn   = "5. 福泰大飯店 (回)"
	StationOther         = "其他站點"
)

// StationOrder is the fixed boarding sequence of the five waypoints.
var StationOrder = []string{
	StationHotelOutbound,
	StationMetro,
	StationTrain,
	StationMall,
	StationHotelReturn,
}

// stationSortLast sorts unrecognized labels after every defined slot.
const stationSortLast = 999

// NormalizeStation maps a passenger's free-text station field to one of the
// five canonical waypoints. The hotel is labeled outbound unless the
// passenger is on the return leg and alighting there. Unrecognized text
// passes through verbatim; an empty field resolves to the generic label.
func NormalizeStation(p Passenger) string {
	raw := strings.TrimSpace(p.Station)
	has := func(s string) bool { return strings.Contains(raw, s) }

	switch {
	case has("福泰大飯店") || has("Forte Hotel"):
		if p.Direction == DirectionReturn && p.UpDown == ActionAlight {
			return StationHotelReturn
		}
		return StationHotelOutbound
	case has("南港展覽館捷運站") || has("Nangang Exhibition Center") ||
		has("南港捷運站") || has("捷運南港展覽館站"):
		return StationMetro
	case has("南港火車站") || has("Nangang Train Station"):
		return StationTrain
	case has("LaLaport") || has("Lalaport"):
		return StationMall
	}
	if raw == "" {
		return StationOther
	}
	return raw
}

// StationSortOrder returns the waypoint's slot in the boarding sequence, or
// a sentinel greater than every defined slot for unknown labels.
func StationSortOrder(label string) int {
	for i, s := range StationOrder {
		if s == label {
			return i
		}
	}
	return stationSortLast
}

// UpDownStations summarizes a passenger's boarding and alighting waypoints
// from the five per-leg markers.
func UpDownStations(p Passenger) (up, down []string) {
	type marker struct {
		value   string
		station string
	}
	markers := []marker{
		{p.HotelGo, "福泰大飯店 (去)"},
		{p.MRT, "南港捷運站"},
		{p.Train, "南港火車站"},
		{p.Mall, "LaLaport 購物中心"},
		{p.HotelBack, "福泰大飯店 (回)"},
	}
	for _, m := range markers {
		if m.value == "" {
			continue
		}
		if strings.Contains(m.value, "上") {
			up = append(up, m.station)
		}
		if strings.Contains(m.value, "下") {
			down = append(down, m.station)
		}
	}
	return up, down
}
