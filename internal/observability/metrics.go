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
	draftCounter          *prometheus.CounterVec
	settlementCounter     *prometheus.CounterVec
	unpairedDebitCounter  prometheus.Counter
	idempotencyCounter    *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
	dueQueueGauge         prometheus.Gauge
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		draftCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transfer_drafts_total",
			Help: "Transfer drafts created, by channel and initial status",
		}, []string{"channel", "status"})

		settlementCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transfer_settlements_total",
			Help: "Finalized transfers, by channel and terminal status",
		}, []string{"channel", "status"})

		unpairedDebitCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_unpaired_debits_total",
			Help: "Settled debits found without a matching credit leg",
		})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		dueQueueGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "settlement_due_batch_size",
			Help: "Transactions settled in the most recent worker pass",
		})

		prometheus.MustRegister(
			httpDurationHistogram,
			draftCounter,
			settlementCounter,
			unpairedDebitCounter,
			idempotencyCounter,
			workerRunCounter,
			dueQueueGauge,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementDraftCreated(channel, status string) {
	if draftCounter == nil {
		return
	}
	draftCounter.WithLabelValues(channel, status).Inc()
}

func IncrementSettlement(channel, status string) {
	if settlementCounter == nil {
		return
	}
	settlementCounter.WithLabelValues(channel, status).Inc()
}

func IncrementUnpairedDebit() {
	if unpairedDebitCounter == nil {
		return
	}
	unpairedDebitCounter.Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}

func SetDueBatchSize(n int) {
	if dueQueueGauge == nil {
		return
	}
	dueQueueGauge.Set(float64(n))
}
