package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var enabled = true

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rco_requests_total",
		Help: "Total number of requests sent to the provider API",
	}, []string{"resource", "outcome"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rco_request_duration_seconds",
		Help:    "Duration of requests sent to the provider API",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})

	RecordsReturned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rco_records_returned_total",
		Help: "Records left after local filtering, per resource",
	}, []string{"resource"})

	RecordsFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rco_records_filtered_total",
		Help: "Records dropped by local post-fetch filters",
	}, []string{"filter"})

	PartialAverages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rco_partial_averages_total",
		Help: "Averages computed over fewer points than requested",
	})
)

// SetEnabled turns recording on or off. Collectors stay registered either way.
func SetEnabled(on bool) {
	enabled = on
}

func RecordRequest(resource, outcome string, duration time.Duration) {
	if !enabled {
		return
	}
	RequestsTotal.WithLabelValues(resource, outcome).Inc()
	RequestDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

func RecordReturned(resource string, count int) {
	if !enabled {
		return
	}
	RecordsReturned.WithLabelValues(resource).Add(float64(count))
}

func RecordFiltered(filter string, dropped int) {
	if !enabled || dropped == 0 {
		return
	}
	RecordsFiltered.WithLabelValues(filter).Add(float64(dropped))
}

func RecordPartialAverage() {
	if !enabled {
		return
	}
	PartialAverages.Inc()
}

// WriteTextfile dumps every registered collector in the text exposition
// format, for node_exporter's textfile collector or a later diff. The file
// is written atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("erro ao gravar métricas em %s: %w", path, err)
	}
	return nil
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
