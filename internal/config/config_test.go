package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://dispatch.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "https://dispatch.example.com" {
		t.Errorf("trailing slash not stripped: %q", cfg.APIBaseURL)
	}
	if cfg.SyncInterval != 10*time.Minute || cfg.SyncIdleInterval != 30*time.Minute {
		t.Errorf("sync intervals: %v / %v", cfg.SyncInterval, cfg.SyncIdleInterval)
	}
	if cfg.SyncWindowStart != 7 || cfg.SyncWindowEnd != 22 {
		t.Errorf("sync window: %d..%d", cfg.SyncWindowStart, cfg.SyncWindowEnd)
	}
	if cfg.LocationInterval != 3*time.Minute {
		t.Errorf("location interval: %v", cfg.LocationInterval)
	}
	if cfg.FlushDelay != 5*time.Second {
		t.Errorf("flush delay: %v", cfg.FlushDelay)
	}
	if cfg.DeviceID == "" {
		t.Error("device id not generated")
	}
	if cfg.DriverRole != "driverA" {
		t.Errorf("driver role: %q", cfg.DriverRole)
	}
	if cfg.NotifyLeadMinutes != 30 || cfg.NotifySound != "notify_sound_1" {
		t.Errorf("notify: lead=%d sound=%q", cfg.NotifyLeadMinutes, cfg.NotifySound)
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("DRIVER_API_URL", "")
	if _, err := Load(); err == nil {
		t.Error("missing base URL accepted")
	}
}

func TestLoadLegacyURLFallback(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("DRIVER_API_URL", "https://legacy.example.com")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "https://legacy.example.com" {
		t.Errorf("fallback URL: %q", cfg.APIBaseURL)
	}
}

func TestLoadFloorsLocationInterval(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://dispatch.example.com")
	t.Setenv("GPS_INTERVAL_MIN", "1")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LocationInterval != 3*time.Minute {
		t.Errorf("interval below floor accepted: %v", cfg.LocationInterval)
	}
}

func TestLoadRejectsBadWindow(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://dispatch.example.com")
	t.Setenv("SYNC_WINDOW_START_HOUR", "23")
	t.Setenv("SYNC_WINDOW_END_HOUR", "7")
	if _, err := Load(); err == nil {
		t.Error("inverted window accepted")
	}
}

func TestLoadRejectsGarbageInt(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://dispatch.example.com")
	t.Setenv("DATA_SYNC_INTERVAL_MIN", "soon")
	if _, err := Load(); err == nil {
		t.Error("non-numeric interval accepted")
	}
}
