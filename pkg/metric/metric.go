package metric

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metric struct {
	mu sync.Mutex

	// should be initialized with RegisterMetrics
	samples           *prometheus.CounterVec
	procTimeHistogram *prometheus.HistogramVec
	procTime          *prometheus.GaugeVec
	accuracy          *prometheus.GaugeVec
	frames            *prometheus.CounterVec
}

// RegisterMetrics creates the collectors and registers them with reg.
// A nil reg means the default Prometheus registry.
func (m *Metric) RegisterMetrics(reg prometheus.Registerer, procTimeBuckets []float64) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if procTimeBuckets == nil {
		procTimeBuckets = prometheus.DefBuckets
	}

	m.samples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluated_samples_total",
			Help: "Labeled samples seen by the evaluator, by outcome.",
		},
		[]string{"outcome"},
	)
	m.procTimeHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "processing_time_ms_histogram",
			Help:    "Histogram of processing times.",
			Buckets: procTimeBuckets,
		},
		[]string{"service"},
	)
	m.procTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "processing_time_ms",
			Help: "Gauge of processing times.",
		},
		[]string{"service"},
	)
	m.accuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "accuracy_percent",
			Help: "Accuracy of the last evaluation run.",
		},
		[]string{"kind"},
	)
	m.frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frames_total",
			Help: "Frames read by the annotator and tracker, by state.",
		},
		[]string{"state"},
	)

	reg.MustRegister(m.samples, m.procTimeHistogram, m.procTime, m.accuracy, m.frames)
}

func (m *Metric) AddSample(outcome string) {
	m.lock()
	defer m.unlock()
	m.samples.WithLabelValues(outcome).Inc()
}

func (m *Metric) AddProcessingTime(s string, time float64) {
	m.lock()
	defer m.unlock()
	m.procTimeHistogram.WithLabelValues(s).Observe(time)
	m.procTime.WithLabelValues(s).Set(time)
}

func (m *Metric) SetAccuracy(kind string, percent float64) {
	m.lock()
	defer m.unlock()
	m.accuracy.WithLabelValues(kind).Set(percent)
}

func (m *Metric) AddFrameCount(state string, n float64) {
	m.lock()
	defer m.unlock()
	m.frames.WithLabelValues(state).Add(n)
}

func (m *Metric) lock() {
	m.mu.Lock()
}

func (m *Metric) unlock() {
	m.mu.Unlock()
}
