package api

import (
	"bytes"
	"strconv"
)

// FlexInt tolerates numeric fields that arrive either as JSON numbers or as
// quoted strings. Unparseable values decode to 0 rather than failing the
// whole payload.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

// DriverData is the full dataset returned by the driver data endpoint:
// trips, the per-leg trip rosters, and the global passenger detail list.
type DriverData struct {
	Trips          []TripRecord          `json:"trips"`
	TripPassengers []TripPassengerRecord `json:"trip_passengers"`
	PassengerList  []PassengerRecord     `json:"passenger_list"`
}

type TripRecord struct {
	TripID   string  `json:"trip_id"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	TotalPax FlexInt `json:"total_pax"`
}

// TripPassengerRecord is one leg of one booking on one trip.
type TripPassengerRecord struct {
	TripID    string  `json:"trip_id"`
	Station   string  `json:"station"`
	UpDown    string  `json:"updown"`
	BookingID string  `json:"booking_id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Room      string  `json:"room"`
	Pax       FlexInt `json:"pax"`
	Status    string  `json:"status"`
	Direction string  `json:"direction"`
	QRCode    string  `json:"qrcode"`
}

// PassengerRecord is the global per-booking detail record with the five
// waypoint markers.
type PassengerRecord struct {
	BookingID    string  `json:"booking_id"`
	MainDatetime string  `json:"main_datetime"`
	DepartTime   string  `json:"depart_time"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Room         string  `json:"room"`
	Pax          FlexInt `json:"pax"`
	RideStatus   string  `json:"ride_status"`
	Direction    string  `json:"direction"`
	HotelGo      string  `json:"hotel_go"`
	MRT          string  `json:"mrt"`
	Train        string  `json:"train"`
	Mall         string  `json:"mall"`
	HotelBack    string  `json:"hotel_back"`
}

type CheckinResult struct {
	Status       string  `json:"status"`
	BookingID    string  `json:"booking_id"`
	Name         string  `json:"name"`
	Pax          FlexInt `json:"pax"`
	Message      string  `json:"message"`
	MainDatetime string  `json:"main_datetime"`
}

func (r CheckinResult) Success() bool { return r.Status == "success" }

type QRInfo struct {
	BookingID    string `json:"booking_id"`
	Name         string `json:"name"`
	MainDatetime string `json:"main_datetime"`
	RideStatus   string `json:"ride_status"`
}

// LocationReport is the GPS upload payload.
type LocationReport struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
	TripID    string  `json:"trip_id"`
	Provider  string  `json:"location_provider"`
	DeviceID  string  `json:"device_id,omitempty"`
}

type TripStartRequest struct {
	MainDatetime string   `json:"main_datetime"`
	DriverRole   string   `json:"driver_role"`
	Stops        []string `json:"stops,omitempty"`
}

type Stop struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type TripStartResult struct {
	TripID   string `json:"trip_id"`
	ShareURL string `json:"share_url"`
	Stops    []Stop `json:"stops"`
}

type statusResponse struct {
	Status string `json:"status"`
}
