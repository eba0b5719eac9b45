package location

import (
	"math"
	"sync"
	"time"
)

const (
	DefaultShutdownWindow  = 30 * time.Minute
	DefaultShutdownMinDist = 500.0 // meters
)

type sample struct {
	ts  int64 // epoch millis
	lat float64
	lng float64
}

// MovementDetector keeps a sliding window of recent fixes and decides when
// tracking should stop because the vehicle is idle. It compares the net
// displacement between the oldest and newest retained sample, not the path
// length, so an out-and-back run inside the window can read as idle; that
// approximation is deliberate.
type MovementDetector struct {
	mu      sync.Mutex
	samples []sample
}

func NewMovementDetector() *MovementDetector {
	return &MovementDetector{}
}

// ShouldShutdown appends the fix, prunes samples older than ts-window, and
// answers true when at least two samples remain and the great-circle
// distance between the oldest and newest is below minDistanceMeters.
func (d *MovementDetector) ShouldShutdown(lat, lng float64, ts int64, window time.Duration, minDistanceMeters float64) bool {
	cutoff := ts - window.Milliseconds()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.samples = append(d.samples, sample{ts: ts, lat: lat, lng: lng})
	kept := d.samples[:0]
	for _, s := range d.samples {
		if s.ts >= cutoff {
			kept = append(kept, s)
		}
	}
	d.samples = kept

	if len(d.samples) < 2 {
		return false
	}
	first := d.samples[0]
	last := d.samples[len(d.samples)-1]
	return Haversine(first.lat, first.lng, last.lat, last.lng) < minDistanceMeters
}

// Reset drops the window, e.g. when a new trip starts.
func (d *MovementDetector) Reset() {
	d.mu.Lock()
	d.samples = nil
	d.mu.Unlock()
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
