package flatten

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
)

// Metrics provides observability for flatten runs. A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	// Documents read per run
	Documents prometheus.Counter

	// Rows produced by dataset
	Rows *prometheus.CounterVec

	// Rows missing a party identifier
	MissingIdentifiers prometheus.Counter

	// Dataset failures by dataset and sink ("" when planning failed)
	DatasetFailures *prometheus.CounterVec

	// Sink write latency by sink
	WriteLatency *prometheus.HistogramVec

	// Whole run latency
	RunLatency prometheus.Histogram
}

// NewMetrics creates a Metrics instance on its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Documents: factory.NewCounter(prometheus.CounterOpts{
			Name: "partyload_documents_total",
			Help: "Total party documents processed",
		}),
		Rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partyload_rows_total",
			Help: "Total rows produced by dataset",
		}, []string{"dataset"}),
		MissingIdentifiers: factory.NewCounter(prometheus.CounterOpts{
			Name: "partyload_missing_identifiers_total",
			Help: "Entities processed without a party identifier",
		}),
		DatasetFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partyload_dataset_failures_total",
			Help: "Dataset failures by dataset and sink",
		}, []string{"dataset", "sink"}),
		WriteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "partyload_sink_write_duration_seconds",
			Help:    "Duration of writing one dataset to one sink",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"sink"}),
		RunLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "partyload_run_duration_seconds",
			Help:    "Duration of a full flatten run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
	}
}

// Registry returns the registry holding the run metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// WriteTextfile writes the metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return eris.Wrapf(err, "flatten: write metrics textfile %s", path)
	}
	return nil
}

func (m *Metrics) addDocuments(n int) {
	if m != nil {
		m.Documents.Add(float64(n))
	}
}

func (m *Metrics) addRows(dataset string, n int) {
	if m != nil {
		m.Rows.WithLabelValues(dataset).Add(float64(n))
	}
}

func (m *Metrics) addMissingIdentifiers(n int) {
	if m != nil {
		m.MissingIdentifiers.Add(float64(n))
	}
}

func (m *Metrics) incFailure(dataset, sink string) {
	if m != nil {
		m.DatasetFailures.WithLabelValues(dataset, sink).Inc()
	}
}

func (m *Metrics) observeWrite(sink string, d time.Duration) {
	if m != nil {
		m.WriteLatency.WithLabelValues(sink).Observe(d.Seconds())
	}
}

func (m *Metrics) observeRun(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}
