package location

import (
	"math"
	"testing"
	"time"
)

func TestHaversine(t *testing.T) {
	// Taipei Main Station to Nangang Station, roughly 9 km.
	d := Haversine(25.0478, 121.5170, 25.0531, 121.6066)
	if d < 8500 || d > 9500 {
		t.Errorf("distance = %.0f m, want ~9000", d)
	}
	if got := Haversine(25.0, 121.5, 25.0, 121.5); got != 0 {
		t.Errorf("same point distance = %f", got)
	}
	// One degree of latitude is about 111 km everywhere.
	d = Haversine(25.0, 121.5, 26.0, 121.5)
	if math.Abs(d-111195) > 500 {
		t.Errorf("one degree latitude = %.0f m", d)
	}
}

func TestShouldShutdownNeedsTwoSamples(t *testing.T) {
	d := NewMovementDetector()
	if d.ShouldShutdown(25.0, 121.5, 1_000, DefaultShutdownWindow, DefaultShutdownMinDist) {
		t.Error("single sample must not trigger shutdown")
	}
}

func TestShouldShutdownIdleVehicle(t *testing.T) {
	d := NewMovementDetector()
	base := int64(1_700_000_000_000)
	// ~100 m of drift over three samples, well under the 500 m threshold.
	d.ShouldShutdown(25.0000, 121.5000, base, DefaultShutdownWindow, DefaultShutdownMinDist)
	d.ShouldShutdown(25.0005, 121.5000, base+60_000, DefaultShutdownWindow, DefaultShutdownMinDist)
	if !d.ShouldShutdown(25.0008, 121.5000, base+120_000, DefaultShutdownWindow, DefaultShutdownMinDist) {
		t.Error("idle vehicle should trigger shutdown")
	}
}

func TestShouldShutdownMovingVehicle(t *testing.T) {
	d := NewMovementDetector()
	base := int64(1_700_000_000_000)
	d.ShouldShutdown(25.00, 121.50, base, DefaultShutdownWindow, DefaultShutdownMinDist)
	// ~1.1 km away.
	if d.ShouldShutdown(25.01, 121.50, base+60_000, DefaultShutdownWindow, DefaultShutdownMinDist) {
		t.Error("moving vehicle must not trigger shutdown")
	}
}

func TestShouldShutdownPrunesOldSamples(t *testing.T) {
	d := NewMovementDetector()
	base := int64(1_700_000_000_000)
	window := 10 * time.Minute

	// Far-away sample that falls out of the window before the decision.
	d.ShouldShutdown(25.10, 121.50, base, window, DefaultShutdownMinDist)
	if d.ShouldShutdown(25.00, 121.50, base+window.Milliseconds()+1, window, DefaultShutdownMinDist) {
		t.Error("pruning left a single sample; must not trigger")
	}
	// Next nearby sample makes two in-window samples close together.
	if !d.ShouldShutdown(25.0001, 121.50, base+window.Milliseconds()+60_000, window, DefaultShutdownMinDist) {
		t.Error("two close in-window samples should trigger")
	}
}

func TestMovementDetectorReset(t *testing.T) {
	d := NewMovementDetector()
	base := int64(1_700_000_000_000)
	d.ShouldShutdown(25.0, 121.5, base, DefaultShutdownWindow, DefaultShutdownMinDist)
	d.Reset()
	if d.ShouldShutdown(25.0, 121.5, base+1_000, DefaultShutdownWindow, DefaultShutdownMinDist) {
		t.Error("reset should drop the window")
	}
}
