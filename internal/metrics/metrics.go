package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons used as the "reason" label of MessagesSkipped.
const (
	ReasonDuplicate     = "duplicate"
	ReasonNotOfInterest = "not_of_interest"
	ReasonMalformed     = "malformed_subject"
	ReasonNoMessageID   = "no_message_id"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Registry *prometheus.Registry

	FetchCount       prometheus.Counter
	FetchFailures    prometheus.Counter
	MessagesSeen     prometheus.Counter
	MessagesIngested prometheus.Counter
	MessagesSkipped  *prometheus.CounterVec
	ReportRows       prometheus.Counter
	ReportsSent      prometheus.Counter
	ReportFailures   prometheus.Counter
	CycleDuration    prometheus.Histogram
	BackupSets       prometheus.Gauge
	LastSuccess      prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics on their own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		FetchCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "dupreport_fetch_count",
			Help: "Total number of mailbox fetch operations",
		}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dupreport_fetch_failures",
			Help: "Total number of failed mailbox fetch operations",
		}),
		MessagesSeen: factory.NewCounter(prometheus.CounterOpts{
			Name: "dupreport_messages_seen",
			Help: "Total number of messages read from the mailbox",
		}),
		MessagesIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "dupreport_messages_ingested",
			Help: "Total number of backup notifications stored",
		}),
		MessagesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dupreport_messages_skipped",
			Help: "Total number of messages skipped, by reason",
		}, []string{"reason"}),
		ReportRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "dupreport_report_rows",
			Help: "Total number of backup rows written to reports",
		}),
		ReportsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "dupreport_reports_sent",
			Help: "Total number of summary reports sent",
		}),
		ReportFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dupreport_report_failures",
			Help: "Total number of summary reports that could not be built or sent",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dupreport_cycle_duration_seconds",
			Help:    "Time spent in one collect and report cycle",
			Buckets: prometheus.DefBuckets,
		}),
		BackupSets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dupreport_backup_sets",
			Help: "Number of known source/destination pairs",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dupreport_last_success_timestamp_seconds",
			Help: "Unix time of the last cycle that completed without error",
		}),
	}
}

// WithRuntimeCollectors adds the process and Go runtime collectors, for
// long-running processes.
func (m *Metrics) WithRuntimeCollectors() *Metrics {
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// WriteTextfile writes the current values in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
