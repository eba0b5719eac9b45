package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	SyncsTotal     prometheus.Counter
	SyncFailures   prometheus.Counter
	SyncsCoalesced prometheus.Counter
	SyncDuration   prometheus.Histogram

	ScansAccepted prometheus.Counter
	ScansRejected *prometheus.CounterVec // reason label
	FlushBatch    prometheus.Histogram
	ConfirmErrs   prometheus.Counter

	LocationSends    prometheus.Counter
	LocationSendErrs prometheus.Counter
	LocationSkips    prometheus.Counter
	AutoShutdowns    prometheus.Counter

	NotifyScheduled prometheus.Counter
	NotifyDeduped   prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	SyncInterval     prometheus.Gauge // seconds
	LocationInterval prometheus.Gauge // seconds
	FlushDelay       prometheus.Gauge // seconds
}

func NewCollector(syncInterval, locationInterval, flushDelay time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		SyncsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_syncs_total",
			Help: "Total successful fetch-and-reconcile cycles.",
		}),
		SyncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_sync_failures_total",
			Help: "Total sync cycles that failed upstream.",
		}),
		SyncsCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_syncs_coalesced_total",
			Help: "Sync calls served by an already in-flight fetch.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_sync_duration_seconds",
			Help:    "Duration of fetch-and-reconcile cycles.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ScansAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_scans_accepted_total",
			Help: "QR scans that passed every local gate.",
		}),
		ScansRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_scans_rejected_total",
			Help: "QR scans rejected locally.",
		}, []string{"reason"}),
		FlushBatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_flush_batch_size",
			Help:    "Pending boardings drained per flush.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		ConfirmErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_confirm_errors_total",
			Help: "Boarding confirmations that failed during flush.",
		}),
		LocationSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_location_sends_total",
			Help: "GPS fixes uploaded.",
		}),
		LocationSendErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_location_send_errors_total",
			Help: "GPS reads or uploads that failed.",
		}),
		LocationSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_location_skips_total",
			Help: "Location calls answered from the last-sent cache.",
		}),
		AutoShutdowns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_auto_shutdowns_total",
			Help: "Times the movement detector stopped tracking.",
		}),
		NotifyScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_notifications_scheduled_total",
			Help: "Departure reminders scheduled.",
		}),
		NotifyDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_notifications_deduped_total",
			Help: "Reminder requests suppressed by the per-day id set.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_nats_published_total",
			Help: "Position messages mirrored to NATS.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_nats_publish_errors_total",
			Help: "NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_nats_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
		SyncInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_sync_interval_seconds",
			Help: "Data resync interval in seconds.",
		}),
		LocationInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_location_interval_seconds",
			Help: "Minimum location upload interval in seconds.",
		}),
		FlushDelay: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_flush_delay_seconds",
			Help: "Boarding flush delay in seconds.",
		}),
	}

	reg.MustRegister(
		c.SyncsTotal, c.SyncFailures, c.SyncsCoalesced, c.SyncDuration,
		c.ScansAccepted, c.ScansRejected, c.FlushBatch, c.ConfirmErrs,
		c.LocationSends, c.LocationSendErrs, c.LocationSkips, c.AutoShutdowns,
		c.NotifyScheduled, c.NotifyDeduped,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.SyncInterval, c.LocationInterval, c.FlushDelay,
	)

	c.SyncInterval.Set(syncInterval.Seconds())
	c.LocationInterval.Set(locationInterval.Seconds())
	c.FlushDelay.Set(flushDelay.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
