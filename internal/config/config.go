package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration

	SyncInterval     time.Duration // foreground resync cadence
	SyncIdleInterval time.Duration // cadence outside active hours
	SyncWindowStart  int           // first hour of the service window
	SyncWindowEnd    int           // last hour of the service window

	LocationInterval time.Duration
	FlushDelay       time.Duration

	AutoShutdownEnabled bool
	AutoShutdownWindow  time.Duration
	AutoShutdownMinDist float64 // meters

	NotifyLeadMinutes  int
	NotifySound        string
	NotifySoundEnabled bool

	StorePath string

	PrimaryFixURL   string
	SecondaryFixURL string // empty disables the secondary provider
	DeviceID        string
	DriverRole      string

	NATSURL           string // empty disables the position mirror
	NATSSubjectPrefix string
	LogNATSSubjects   bool
	MetricsAddr       string // empty disables the metrics server

	Location *time.Location
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.APIBaseURL = strings.TrimRight(firstNonEmpty(
		os.Getenv("API_BASE_URL"),
		os.Getenv("DRIVER_API_URL"),
	), "/")
	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL must be set")
	}

	var err error
	if cfg.HTTPTimeout, err = secondsEnv("HTTP_TIMEOUT_SEC", 15); err != nil {
		return nil, err
	}
	if cfg.SyncInterval, err = minutesEnv("DATA_SYNC_INTERVAL_MIN", 10); err != nil {
		return nil, err
	}
	if cfg.SyncIdleInterval, err = minutesEnv("DATA_SYNC_IDLE_INTERVAL_MIN", 30); err != nil {
		return nil, err
	}
	if cfg.SyncWindowStart, err = intEnv("SYNC_WINDOW_START_HOUR", 7); err != nil {
		return nil, err
	}
	if cfg.SyncWindowEnd, err = intEnv("SYNC_WINDOW_END_HOUR", 22); err != nil {
		return nil, err
	}
	if cfg.SyncWindowStart < 0 || cfg.SyncWindowEnd > 23 || cfg.SyncWindowStart > cfg.SyncWindowEnd {
		return nil, fmt.Errorf("invalid sync window %d..%d", cfg.SyncWindowStart, cfg.SyncWindowEnd)
	}

	if cfg.LocationInterval, err = minutesEnv("GPS_INTERVAL_MIN", 3); err != nil {
		return nil, err
	}
	// The uploader never runs hotter than every 3 minutes.
	if cfg.LocationInterval < 3*time.Minute {
		cfg.LocationInterval = 3 * time.Minute
	}
	if cfg.FlushDelay, err = secondsEnv("FLUSH_DELAY_SEC", 5); err != nil {
		return nil, err
	}

	cfg.AutoShutdownEnabled = boolEnv("AUTO_SHUTDOWN_ENABLED")
	if cfg.AutoShutdownWindow, err = minutesEnv("AUTO_SHUTDOWN_WINDOW_MIN", 30); err != nil {
		return nil, err
	}
	dist, err := intEnv("AUTO_SHUTDOWN_DISTANCE_M", 500)
	if err != nil {
		return nil, err
	}
	if dist < 1 {
		dist = 1
	}
	cfg.AutoShutdownMinDist = float64(dist)

	if cfg.NotifyLeadMinutes, err = intEnv("NOTIFY_LEAD_MIN", 30); err != nil {
		return nil, err
	}
	cfg.NotifySound = getenvDefault("NOTIFY_SOUND", "notify_sound_1")
	cfg.NotifySoundEnabled = boolEnv("NOTIFY_SOUND_ENABLED")

	cfg.StorePath = getenvDefault("STORE_PATH", "dispatch.db")

	cfg.PrimaryFixURL = getenvDefault("PRIMARY_FIX_URL", "http://127.0.0.1:8947/fix")
	cfg.SecondaryFixURL = os.Getenv("SECONDARY_FIX_URL")
	cfg.DeviceID = getenvDefault("DEVICE_ID", uuid.NewString())
	cfg.DriverRole = getenvDefault("DRIVER_ROLE", "driverA")

	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "shuttle")
	cfg.LogNATSSubjects = boolEnv("LOG_NATS_SUBJECTS")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	// Time zone
	tzName := getenvDefault("TZ", "")
	if tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func boolEnv(k string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return n, nil
}

func minutesEnv(k string, defMinutes int) (time.Duration, error) {
	n, err := intEnv(k, defMinutes)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: %d", k, n)
	}
	return time.Duration(n) * time.Minute, nil
}

func secondsEnv(k string, defSeconds int) (time.Duration, error) {
	n, err := intEnv(k, defSeconds)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: %d", k, n)
	}
	return time.Duration(n) * time.Second, nil
}
