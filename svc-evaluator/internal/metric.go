package internal

import (
	"time"

	mt "github.com/etesami/face-attribute-eval/pkg/metric"
)

// MetricObserver feeds evaluator outcomes into the Prometheus collectors.
type MetricObserver struct {
	Metric *mt.Metric
}

// Skipped files carry no prediction time, so only predicted samples
// are added to the processing time histogram.
func (o *MetricObserver) ObserveSample(outcome Outcome, elapsed time.Duration) {
	o.Metric.AddSample(string(outcome))
	if outcome != OutcomeUnlabeled {
		o.Metric.AddProcessingTime("evaluator", float64(elapsed.Microseconds())/1000.0)
	}
}

// RecordAccuracy publishes the three accuracy figures of a finished run.
func RecordAccuracy(m *mt.Metric, r *Result) {
	m.SetAccuracy("net", r.NetAccuracy)
	m.SetAccuracy("age", r.AgeAccuracy)
	m.SetAccuracy("gender", r.GenderAccuracy)
}
