package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	outputBytes       prometheus.Histogram
	pixelsProcessed   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imgproc_pipeline_operations_total",
			Help: "Chain operations executed by kind and outcome.",
		}, []string{"op", "status"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imgproc_pipeline_operation_duration_seconds",
			Help:    "Time spent in each chain operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		outputBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "imgproc_pipeline_output_bytes",
			Help:    "Size of encoded pipeline outputs.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		pixelsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgproc_pipeline_pixels_processed_total",
			Help: "Decoded source pixels across all pipeline runs.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.operationsTotal,
			m.operationDuration,
			m.outputBytes,
			m.pixelsProcessed,
		)
	}
	return m
}

func (m *Metrics) observeOp(op string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(op, status).Inc()
	m.operationDuration.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) observeOutput(size int, pixels int64) {
	if m == nil {
		return
	}
	m.outputBytes.Observe(float64(size))
	m.pixelsProcessed.Add(float64(pixels))
}
