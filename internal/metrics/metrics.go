package metrics

import (
	"time"

	"github.com/convowin/convowin/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "convowin"

// Job outcomes recorded per tenant
const (
	OutcomeSucceeded = "succeeded"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics holds the billing engine instruments
type Metrics struct {
	conversationsCharged *prometheus.CounterVec
	windowHits           *prometheus.CounterVec
	rateMisses           *prometheus.CounterVec
	cacheErrors          *prometheus.CounterVec
	cacheOpDuration      *prometheus.HistogramVec
	jobTenants           *prometheus.CounterVec
	jobDuration          *prometheus.HistogramVec
	invoicesGenerated    prometheus.Counter
}

// New registers the instruments on registerer. A nil registerer uses the
// default prometheus registry.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		conversationsCharged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_charged_total",
			Help:      "Conversation windows opened and charged, by market and category.",
		}, []string{"market", "category"}),
		windowHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_window_hits_total",
			Help:      "Messages sent inside an already open conversation window.",
		}, []string{"category"}),
		rateMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_card_misses_total",
			Help:      "Charged conversations with no matching rate card entry.",
		}, []string{"market", "category"}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Cache operations that failed, by backend and operation.",
		}, []string{"backend", "op"}),
		cacheOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_op_duration_seconds",
			Help:      "Cache operation latency.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"backend", "op"}),
		jobTenants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_tenants_total",
			Help:      "Tenants processed by batch jobs, by job and outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Batch job latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"job"}),
		invoicesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_generated_total",
			Help:      "Invoices persisted.",
		}),
	}

	registerer.MustRegister(
		m.conversationsCharged,
		m.windowHits,
		m.rateMisses,
		m.cacheErrors,
		m.cacheOpDuration,
		m.jobTenants,
		m.jobDuration,
		m.invoicesGenerated,
	)
	return m
}

func (m *Metrics) ConversationCharged(market string, category types.MessageCategory) {
	if m == nil {
		return
	}
	m.conversationsCharged.WithLabelValues(market, category.String()).Inc()
}

func (m *Metrics) WindowHit(category types.MessageCategory) {
	if m == nil {
		return
	}
	m.windowHits.WithLabelValues(category.String()).Inc()
}

func (m *Metrics) RateMiss(market string, category types.MessageCategory) {
	if m == nil {
		return
	}
	m.rateMisses.WithLabelValues(market, category.String()).Inc()
}

// ObserveCacheOp records latency and, when err is set, a failure
func (m *Metrics) ObserveCacheOp(backend, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.cacheOpDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.cacheErrors.WithLabelValues(backend, op).Inc()
	}
}

func (m *Metrics) JobTenant(job, outcome string) {
	if m == nil {
		return
	}
	m.jobTenants.WithLabelValues(job, outcome).Inc()
}

func (m *Metrics) ObserveJob(job string, start time.Time) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}

func (m *Metrics) InvoiceGenerated() {
	if m == nil {
		return
	}
	m.invoicesGenerated.Inc()
}
