package observability

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "stageflow"
)

var (
	PipelineStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "pipeline", "step_duration_seconds"),
		Help:    "Duration of pipeline steps in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"step"})
	PipelineRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "pipeline", "run_duration_seconds"),
		Help:    "Duration of complete pipeline runs in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"log"})
	PipelineEvents = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "pipeline", "events"),
		Help: "Number of events after each pipeline step",
	}, []string{"log", "step"})
	CoalescedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "coalesce", "ignored_events_total"),
		Help: "Events marked as ignored by coalescing",
	}, []string{"coalescing"})
	ActivityBehaviors = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "classify", "activities"),
		Help: "Number of activities per behavior class of the last run",
	}, []string{"log", "behavior"})
	StageCommunities = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "community", "communities"),
		Help: "Number of communities detected per stage of the last run",
	}, []string{"log", "stage"})
)

// WriteTextfile dumps the default registry in the text exposition format, for
// collection by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create metrics directory")
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
