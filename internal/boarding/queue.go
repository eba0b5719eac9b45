// Package boarding validates driver QR scans against the local dataset and
// batches the resulting server confirmations, so scan feedback never waits
// on the network.
package boarding

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"shuttle-dispatch/internal/api"
	"shuttle-dispatch/internal/metrics"
	"shuttle-dispatch/internal/shuttle"
)

const (
	qrPrefix          = "FT"
	DefaultFlushDelay = 5 * time.Second

	overdueLimit = 60 * time.Minute // latest acceptable scan after departure
	earlyLimit   = 30 * time.Minute // earliest acceptable scan before departure

	flushTimeout = 30 * time.Second
)

// Reason identifies why a scan was rejected locally.
type Reason string

const (
	ReasonBadFormat      Reason = "bad_format"
	ReasonNoNearestTrip  Reason = "no_nearest_trip"
	ReasonUnknownBooking Reason = "unknown_booking"
	ReasonAlreadyBoarded Reason = "already_boarded"
	ReasonNoDatetime     Reason = "no_datetime"
	ReasonWrongTrip      Reason = "wrong_trip"
	ReasonOverdue        Reason = "overdue"
	ReasonTooEarly       Reason = "too_early"
)

var reasonMessages = map[Reason]string{
	ReasonBadFormat:      "QRCode 格式錯誤",
	ReasonNoNearestTrip:  "目前沒有最近班次",
	ReasonUnknownBooking: "QR 不在目前資料",
	ReasonAlreadyBoarded: "此乘客已上車，不重複核銷",
	ReasonNoDatetime:     "未找到乘客主班次時間",
	ReasonWrongTrip:      "非最近班次，未核銷",
	ReasonOverdue:        "此班次已逾期，未核銷",
	ReasonTooEarly:       "尚未發車（早於 30 分鐘）",
}

// Result reports the outcome of one scan. Rejections carry a distinct
// reason and a human-readable message; they never mutate any collection.
type Result struct {
	Accepted  bool
	Reason    Reason
	Message   string
	Passenger *shuttle.Passenger
}

// Roster is the view of the reconciled state the queue validates against.
type Roster interface {
	Trips() []shuttle.Trip
	FindBooking(code string) *shuttle.Passenger
	MarkBoarded(code string) bool
}

// Confirmer reports accepted boardings to the server.
type Confirmer interface {
	ConfirmBoarding(ctx context.Context, qrcode string) (api.CheckinResult, error)
}

// Queue buffers accepted scans and flushes them on a single delayed timer.
// Each flush drains the whole pending set and fires one confirmation per
// entry, ignoring individual failures; the optimistic local state stays the
// source of truth until the next full sync.
type Queue struct {
	roster      Roster
	confirmer   Confirmer
	flushDelay  time.Duration
	beforeFlush func(ctx context.Context)
	metrics     *metrics.Collector
	now         func() time.Time

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// NewQueue builds a queue. beforeFlush runs once per flush before the batch
// (the dispatcher uses it to force a GPS upload alongside the writes); it
// may be nil.
func NewQueue(roster Roster, confirmer Confirmer, flushDelay time.Duration, beforeFlush func(ctx context.Context), m *metrics.Collector) *Queue {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Queue{
		roster:      roster,
		confirmer:   confirmer,
		flushDelay:  flushDelay,
		beforeFlush: beforeFlush,
		metrics:     m,
		now:         time.Now,
		pending:     make(map[string]struct{}),
	}
}

// RecordScan validates one raw QR payload against the local dataset. On
// acceptance the booking is marked boarded in every view and the payload
// joins the pending set for the next flush.
func (q *Queue) RecordScan(code string) Result {
	code = strings.TrimSpace(code)
	parts := strings.Split(code, ":")
	if len(parts) < 3 || parts[0] != qrPrefix || parts[1] == "" {
		return q.reject(ReasonBadFormat)
	}
	bookingID := parts[1]

	nearest := shuttle.NearestTrip(q.roster.Trips(), q.now())
	if nearest == nil {
		return q.reject(ReasonNoNearestTrip)
	}
	pax := q.roster.FindBooking(bookingID)
	if pax == nil {
		return q.reject(ReasonUnknownBooking)
	}
	if pax.Status == shuttle.StatusBoarded {
		return q.reject(ReasonAlreadyBoarded)
	}
	paxTrip := shuttle.NormalizeDate(pax.MainDatetime)
	if paxTrip == "" {
		return q.reject(ReasonNoDatetime)
	}
	if paxTrip != shuttle.DepartureString(*nearest) {
		return q.reject(ReasonWrongTrip)
	}
	sinceDeparture := time.Duration(q.now().UnixMilli()-shuttle.ParseDateTime(paxTrip)) * time.Millisecond
	if sinceDeparture > overdueLimit {
		return q.reject(ReasonOverdue)
	}
	if sinceDeparture < -earlyLimit {
		return q.reject(ReasonTooEarly)
	}

	q.roster.MarkBoarded(bookingID)
	pax.Status = shuttle.StatusBoarded
	q.enqueue(code)
	if q.metrics != nil {
		q.metrics.ScansAccepted.Inc()
	}
	return Result{Accepted: true, Message: "確認上車成功", Passenger: pax}
}

// PendingCount reports the current pending-set size.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) reject(r Reason) Result {
	if q.metrics != nil {
		q.metrics.ScansRejected.WithLabelValues(string(r)).Inc()
	}
	return Result{Reason: r, Message: reasonMessages[r]}
}

func (q *Queue) enqueue(code string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[code] = struct{}{}
	if q.timer == nil {
		q.timer = time.AfterFunc(q.flushDelay, q.flush)
	}
}

func (q *Queue) flush() {
	q.mu.Lock()
	items := make([]string, 0, len(q.pending))
	for code := range q.pending {
		items = append(items, code)
	}
	q.pending = make(map[string]struct{})
	q.timer = nil
	q.mu.Unlock()

	if len(items) == 0 {
		return
	}
	if q.metrics != nil {
		q.metrics.FlushBatch.Observe(float64(len(items)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if q.beforeFlush != nil {
		q.beforeFlush(ctx)
	}
	for _, code := range items {
		if _, err := q.confirmer.ConfirmBoarding(ctx, code); err != nil {
			log.Printf("boarding confirm failed for %q: %v", code, err)
			if q.metrics != nil {
				q.metrics.ConfirmErrs.Inc()
			}
		}
	}
}
