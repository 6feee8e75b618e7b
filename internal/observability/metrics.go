package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	transferCounter       *prometheus.CounterVec
	fraudBlockCounter     *prometheus.CounterVec
	revenueBookedCounter  *prometheus.CounterVec
	debtTransitionCounter *prometheus.CounterVec
	notificationCounter   *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		transferCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_transfers_total",
			Help: "Transfer outcomes by flow",
		}, []string{"flow", "outcome"})

		fraudBlockCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_blocks_total",
			Help: "Transfers blocked by fraud rule",
		}, []string{"rule"})

		revenueBookedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revenue_bookings_total",
			Help: "Fee amounts booked into the revenue ledger",
		}, []string{"currency", "source"})

		debtTransitionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debt_transitions_total",
			Help: "Debt record status transitions",
		}, []string{"status"})

		notificationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_events_total",
			Help: "Notification dispatch outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			transferCounter,
			fraudBlockCounter,
			revenueBookedCounter,
			debtTransitionCounter,
			notificationCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementTransfer(flow, outcome string) {
	if transferCounter == nil {
		return
	}
	transferCounter.WithLabelValues(flow, outcome).Inc()
}

func IncrementFraudBlock(rule string) {
	if fraudBlockCounter == nil {
		return
	}
	fraudBlockCounter.WithLabelValues(rule).Inc()
}

func IncrementRevenueBooked(currency, source string) {
	if revenueBookedCounter == nil {
		return
	}
	revenueBookedCounter.WithLabelValues(currency, source).Inc()
}

func IncrementDebtTransition(status string) {
	if debtTransitionCounter == nil {
		return
	}
	debtTransitionCounter.WithLabelValues(status).Inc()
}

func IncrementNotification(outcome string) {
	if notificationCounter == nil {
		return
	}
	notificationCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
