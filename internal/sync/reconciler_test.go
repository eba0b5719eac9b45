package sync

import (
	"reflect"
	"testing"

	"shuttle-dispatch/internal/api"
	"shuttle-dispatch/internal/shuttle"
)

func samplePayload() api.DriverData {
	return api.DriverData{
		Trips: []api.TripRecord{
			{TripID: "t1", Date: "2025-12-08", Time: "08:00", TotalPax: 4},
			{TripID: "t2", Date: "2025/12/08", Time: "18:00", TotalPax: 2},
		},
		TripPassengers: []api.TripPassengerRecord{
			{TripID: "t1", BookingID: "B1", Name: "王小明", Station: "福泰大飯店", UpDown: "上車", Direction: "去程", Pax: 2, Status: "預約"},
			{TripID: "t1", BookingID: "B1", Name: "王小明", Station: "南港捷運站", UpDown: "下車", Direction: "去程", Pax: 2, Status: "預約"},
			{TripID: "t1", BookingID: "B2", Name: "Lee", Station: "南港火車站", UpDown: "上車", Direction: "去程", Pax: 0, Status: "已上車"},
			{TripID: "t2", BookingID: "B3", Name: "Chen", Station: "LaLaport", UpDown: "上車", Direction: "回程", Pax: 1, Status: "No-show"},
		},
		PassengerList: []api.PassengerRecord{
			{BookingID: "B1", Name: "王小明", MainDatetime: "2025-12-08 8:00", Pax: 2, HotelGo: "上車", MRT: "下車", RideStatus: "預約"},
			{BookingID: "B4", Name: "Wu", MainDatetime: "", Pax: 1, RideStatus: "預約"},
		},
	}
}

func TestReconcileTrips(t *testing.T) {
	ds := Reconcile(samplePayload())
	if len(ds.Trips) != 2 {
		t.Fatalf("trips = %d, want 2", len(ds.Trips))
	}
	if ds.Trips[0].Date != "2025/12/08" {
		t.Errorf("trip date not canonicalized: %q", ds.Trips[0].Date)
	}
	if ds.Trips[0].Booked != 4 {
		t.Errorf("Booked = %d, want 4", ds.Trips[0].Booked)
	}
}

func TestReconcileTripPassengers(t *testing.T) {
	ds := Reconcile(samplePayload())
	// One entry per leg record, never deduped by booking.
	if len(ds.TripPassengers) != 4 {
		t.Fatalf("trip passengers = %d, want 4", len(ds.TripPassengers))
	}

	b1 := ds.TripPassengers[0]
	if b1.MainDatetime != "2025/12/08 08:00" {
		t.Errorf("detail datetime not normalized: %q", b1.MainDatetime)
	}
	if b1.HotelGo != "上車" || b1.MRT != "下車" {
		t.Errorf("detail markers not merged: %+v", b1)
	}
	if b1.Status != shuttle.StatusBooked {
		t.Errorf("status = %q", b1.Status)
	}

	// No detail record: datetime derived from the trip.
	b2 := ds.TripPassengers[2]
	if b2.MainDatetime != "2025/12/08 08:00" {
		t.Errorf("derived datetime = %q", b2.MainDatetime)
	}
	if b2.Status != shuttle.StatusBoarded {
		t.Errorf("boarded status = %q", b2.Status)
	}
	if b2.Pax != 1 {
		t.Errorf("zero pax should default to 1, got %d", b2.Pax)
	}

	b3 := ds.TripPassengers[3]
	if b3.Status != shuttle.StatusNoShow {
		t.Errorf("no-show status = %q", b3.Status)
	}
}

func TestReconcileGlobalViewIsSuperset(t *testing.T) {
	ds := Reconcile(samplePayload())

	codes := make(map[string]bool)
	for _, p := range ds.AllPassengers {
		if codes[p.BookingCode] {
			t.Errorf("duplicate booking %q in global view", p.BookingCode)
		}
		codes[p.BookingCode] = true
	}
	for _, want := range []string{"B1", "B2", "B3", "B4"} {
		if !codes[want] {
			t.Errorf("booking %q missing from global view", want)
		}
	}
}

func TestReconcileLegOnlySynthesis(t *testing.T) {
	ds := Reconcile(samplePayload())

	var b2, b3 *shuttle.Passenger
	for i := range ds.AllPassengers {
		switch ds.AllPassengers[i].BookingCode {
		case "B2":
			b2 = &ds.AllPassengers[i]
		case "B3":
			b3 = &ds.AllPassengers[i]
		}
	}
	if b2 == nil || b3 == nil {
		t.Fatal("synthesized bookings missing")
	}

	if b2.Train != "上車" {
		t.Errorf("B2 train marker = %q, want 上車", b2.Train)
	}
	if b2.MainDatetime != "2025/12/08 08:00" {
		t.Errorf("B2 datetime = %q", b2.MainDatetime)
	}
	if b3.Mall != "上車" {
		t.Errorf("B3 mall marker = %q, want 上車", b3.Mall)
	}
	if b3.Status != shuttle.StatusNoShow {
		t.Errorf("B3 status = %q", b3.Status)
	}
}

func TestReconcileHotelLegDirectionFallback(t *testing.T) {
	data := api.DriverData{
		Trips: []api.TripRecord{{TripID: "t1", Date: "2025/12/08", Time: "08:00"}},
		TripPassengers: []api.TripPassengerRecord{
			{TripID: "t1", BookingID: "R1", Station: "福泰大飯店", UpDown: "下車", Direction: "回程", Pax: 1},
			{TripID: "t1", BookingID: "R2", Station: "Forte Hotel", UpDown: "下車", Direction: "", Pax: 1},
			{TripID: "t1", BookingID: "R3", Station: "福泰大飯店", UpDown: "上車", Direction: "", Pax: 1},
		},
	}
	ds := Reconcile(data)
	byCode := make(map[string]shuttle.Passenger)
	for _, p := range ds.AllPassengers {
		byCode[p.BookingCode] = p
	}
	if byCode["R1"].HotelBack != "下車" || byCode["R1"].HotelGo != "" {
		t.Errorf("R1 markers: %+v", byCode["R1"])
	}
	if byCode["R2"].HotelBack != "下車" {
		t.Errorf("R2 should fall back to return marker on alight: %+v", byCode["R2"])
	}
	if byCode["R3"].HotelGo != "上車" {
		t.Errorf("R3 should fall back to outbound marker on board: %+v", byCode["R3"])
	}
}

func TestReconcileDetailMissingDatetimeUsesFirstLeg(t *testing.T) {
	data := api.DriverData{
		Trips: []api.TripRecord{
			{TripID: "t1", Date: "2025/12/08", Time: "08:00"},
			{TripID: "t2", Date: "2025/12/08", Time: "18:00"},
		},
		TripPassengers: []api.TripPassengerRecord{
			{TripID: "t2", BookingID: "B1", Pax: 1},
			{TripID: "t1", BookingID: "B1", Pax: 1},
		},
		PassengerList: []api.PassengerRecord{{BookingID: "B1", Pax: 1}},
	}
	ds := Reconcile(data)
	if got := ds.AllPassengers[0].MainDatetime; got != "2025/12/08 18:00" {
		t.Errorf("first leg record should win, got %q", got)
	}
}

func TestReconcileIsPure(t *testing.T) {
	a := Reconcile(samplePayload())
	b := Reconcile(samplePayload())
	if !reflect.DeepEqual(a, b) {
		t.Error("identical input produced different datasets")
	}
}

func TestReconcileEmptyInput(t *testing.T) {
	ds := Reconcile(api.DriverData{})
	if !ds.Empty() {
		t.Errorf("empty input should reconcile to an empty dataset: %+v", ds)
	}
}
