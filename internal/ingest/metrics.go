package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"poolLedger/internal/ledger"
)

// Metrics are the Prometheus series exported by the orchestrator. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	SyncsTotal   *prometheus.CounterVec
	SyncDuration prometheus.Histogram
	LogsFetched  *prometheus.CounterVec
	FetchErrors  *prometheus.CounterVec
	Rejected     *prometheus.CounterVec
	Inserted     prometheus.Counter
	Collisions   prometheus.Counter
	LedgerSize   prometheus.Gauge
	TokensInPool prometheus.Gauge
	USDTInPool   prometheus.Gauge
}

// NewMetrics creates and registers the orchestrator metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_syncs_total",
			Help: "Sync runs, labeled by outcome.",
		}, []string{"outcome"}),
		SyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_sync_duration_seconds",
			Help:    "Wall time of a full sync run.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		LogsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_logs_fetched_total",
			Help: "Raw logs returned by the log source, labeled by event kind.",
		}, []string{"kind"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_fetch_errors_total",
			Help: "Failed log fetches, labeled by event kind.",
		}, []string{"kind"}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_logs_rejected_total",
			Help: "Logs the classifier did not turn into transactions, labeled by reason.",
		}, []string{"reason"}),
		Inserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_transactions_inserted_total",
			Help: "Chain-derived transactions written to the store.",
		}),
		Collisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_insert_collisions_total",
			Help: "Inserts rejected by the store's unique hash constraint.",
		}),
		LedgerSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_transactions",
			Help: "Transactions in the ledger after the last sync.",
		}),
		TokensInPool: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_tokens_in_pool",
			Help: "Tokens in the pool according to the ledger.",
		}),
		USDTInPool: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_usdt_in_pool",
			Help: "USDT in the pool according to the ledger.",
		}),
	}
}

func (m *Metrics) observeSync(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SyncsTotal.WithLabelValues(outcome).Inc()
	m.SyncDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) fetched(kind string, n int) {
	if m == nil {
		return
	}
	m.LogsFetched.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) fetchFailed(kind string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) rejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) merged(result ledger.MergeResult) {
	if m == nil {
		return
	}
	m.Inserted.Add(float64(result.Inserted))
	m.Collisions.Add(float64(result.Collisions))
}

func (m *Metrics) snapshot(snap ledger.Snapshot) {
	if m == nil {
		return
	}
	m.LedgerSize.Set(float64(len(snap.Transactions)))
	m.TokensInPool.Set(snap.Totals.TokensInPool.InexactFloat64())
	m.USDTInPool.Set(snap.Totals.USDTInPool.InexactFloat64())
}
