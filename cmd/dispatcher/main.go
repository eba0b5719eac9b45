package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"shuttle-dispatch/internal/api"
	"shuttle-dispatch/internal/boarding"
	"shuttle-dispatch/internal/config"
	"shuttle-dispatch/internal/location"
	"shuttle-dispatch/internal/metrics"
	"shuttle-dispatch/internal/notify"
	"shuttle-dispatch/internal/publisher"
	"shuttle-dispatch/internal/shuttle"
	"shuttle-dispatch/internal/store"
	syncer "shuttle-dispatch/internal/sync"
)

// Preference flags shared with the driver UI.
const (
	prefGPSSystemEnabled = "gps_system_enabled"
	prefGPSEnabled       = "gps_enabled"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatalf("store open error: %v", err)
	}
	defer st.Close()
	today := shuttle.FormatDayKey(time.Now().In(cfg.Location))
	if err := st.PruneScheduledBefore(today); err != nil {
		log.Printf("prune scheduled ids: %v", err)
	}

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.SyncInterval, cfg.LocationInterval, cfg.FlushDelay)
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-ctx.Done()
			shutdownCtx, scancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer scancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)

	// Optional NATS position mirror
	var pub *publisher.NATSPublisher
	if cfg.NATSURL != "" {
		pub, err = publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer pub.Close()
	}

	primary := location.NewRemoteProvider("google", cfg.PrimaryFixURL, "", cfg.HTTPTimeout)
	var secondary location.Provider
	if cfg.SecondaryFixURL != "" {
		secondary = location.NewRemoteProvider("hypertrack", cfg.SecondaryFixURL, cfg.DeviceID, cfg.HTTPTimeout)
	}
	sender := location.NewSender(client, st, primary, secondary, mcol)
	detector := location.NewMovementDetector()

	state := syncer.NewState()
	sy := syncer.NewSyncer(client, mcol)
	scheduler := notify.NewScheduler(notify.LogDelivery{}, st, mcol)

	currentTripID := func() string {
		if t := shuttle.NearestTrip(state.Trips(), time.Now().In(cfg.Location)); t != nil {
			return t.ID
		}
		return ""
	}

	// Each flush forces a GPS upload alongside the batched confirmations.
	beforeFlush := func(fctx context.Context) {
		if gpsActive(st) {
			sendAndRecord(fctx, sender, st, pub, currentTripID(), true, cfg.LocationInterval)
		}
	}
	queue := boarding.NewQueue(state, client, cfg.FlushDelay, beforeFlush, mcol)

	// Scan events arrive over NATS when the mirror is configured; the UI
	// embeds the packages directly otherwise.
	if pub != nil {
		sub, err := pub.SubscribeScans(cfg.NATSSubjectPrefix+".scan", func(payload string) {
			res := queue.RecordScan(payload)
			if res.Accepted {
				log.Printf("scan accepted: %s", res.Passenger.BookingCode)
			} else {
				log.Printf("scan rejected (%s): %s", res.Reason, res.Message)
			}
		})
		if err != nil {
			log.Fatalf("scan subscription error: %v", err)
		}
		defer sub.Unsubscribe()
	}

	runSync := func() {
		now := time.Now().In(cfg.Location)
		if now.Hour() < cfg.SyncWindowStart || now.Hour() > cfg.SyncWindowEnd {
			return
		}
		if gpsActive(st) {
			sendAndRecord(ctx, sender, st, pub, currentTripID(), true, cfg.LocationInterval)
		}
		ds := sy.Sync(ctx)
		if !state.Replace(ds) {
			log.Printf("sync returned no data; keeping previous snapshot")
			return
		}
		scheduler.ScheduleToday(ctx, state.Trips(), cfg.NotifyLeadMinutes, cfg.NotifySoundEnabled, cfg.NotifySound)
	}

	runGPS := func() {
		if !gpsActive(st) {
			return
		}
		tripID := currentTripID()
		fix := sendAndRecord(ctx, sender, st, pub, tripID, false, cfg.LocationInterval)
		if fix == nil || !cfg.AutoShutdownEnabled {
			return
		}
		if !detector.ShouldShutdown(fix.Lat, fix.Lng, fix.Timestamp, cfg.AutoShutdownWindow, cfg.AutoShutdownMinDist) {
			return
		}
		log.Printf("auto shutdown: displacement under %.0fm over %s", cfg.AutoShutdownMinDist, cfg.AutoShutdownWindow)
		if mcol != nil {
			mcol.AutoShutdowns.Inc()
		}
		if err := st.SetBool(prefGPSEnabled, false); err != nil {
			log.Printf("disable gps pref: %v", err)
		}
		if t := shuttle.NearestTrip(state.Trips(), time.Now().In(cfg.Location)); t != nil {
			if ok, err := client.CompleteTrip(ctx, t.ID, cfg.DriverRole, shuttle.DepartureString(*t)); err != nil || !ok {
				log.Printf("auto complete trip %s failed: %v", t.ID, err)
			}
		}
	}

	// Two independent timer loops: data resync and location upload.
	runSync()
	go func() {
		for {
			interval := cfg.SyncInterval
			now := time.Now().In(cfg.Location)
			if now.Hour() < cfg.SyncWindowStart || now.Hour() > cfg.SyncWindowEnd {
				interval = cfg.SyncIdleInterval
			}
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				runSync()
			}
		}
	}()

	go func() {
		runGPS()
		ticker := time.NewTicker(cfg.LocationInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runGPS()
			}
		}
	}()

	<-ctx.Done()
	log.Println("shutdown complete")
}

func gpsActive(st *store.Store) bool {
	system, err := st.GetBool(prefGPSSystemEnabled)
	if err != nil || !system {
		return false
	}
	enabled, err := st.GetBool(prefGPSEnabled)
	return err == nil && enabled
}

// sendAndRecord uploads one fix, persists it as the last known location,
// and mirrors it to NATS when configured.
func sendAndRecord(ctx context.Context, sender *location.Sender, st *store.Store, pub *publisher.NATSPublisher, tripID string, force bool, minInterval time.Duration) *location.Fix {
	fix := sender.Send(ctx, tripID, force, minInterval)
	if fix == nil {
		return nil
	}
	if err := st.SetLastLocation(fix.Lat, fix.Lng, fix.Timestamp); err != nil {
		log.Printf("persist last location: %v", err)
	}
	if pub != nil {
		msg := publisher.PositionMessage{
			TripID:    tripID,
			Timestamp: time.UnixMilli(fix.Timestamp),
			Lat:       fix.Lat,
			Lng:       fix.Lng,
			Provider:  fix.Provider,
			DeviceID:  fix.DeviceID,
		}
		if err := pub.PublishPosition(tripID, msg); err != nil {
			log.Printf("publish position: %v", err)
		}
	}
	return fix
}

// wrapPublisherMetrics adapts the Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()  { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc() { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
