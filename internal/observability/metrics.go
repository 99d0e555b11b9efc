package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector bundles Prometheus metrics for the acquisition pipeline:
// the harvester side (samples, errors, cycle latency), the bus, and the
// three storage sinks.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	SamplesHarvested *prometheus.CounterVec
	HarvestErrors    prometheus.Counter
	CycleDuration    prometheus.Histogram
	BusDepth         prometheus.Gauge
	SinkWrites       *prometheus.CounterVec
	SinkErrors       *prometheus.CounterVec
	AnomalyEvents    prometheus.Counter
}

// NewPipelineCollector registers pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	samples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_samples_harvested_total",
		Help: "Total samples produced by the harvester, labeled by signal status.",
	}, []string{"status"})
	samples, err := registerCounterVec(reg, samples, "telemetry_samples_harvested_total")
	if err != nil {
		return nil, err
	}

	harvestErrors, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_harvest_errors_total",
		Help: "Objects skipped because the ephemeris query failed.",
	}), "telemetry_harvest_errors_total")
	if err != nil {
		return nil, err
	}

	cycles := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "telemetry_cycle_duration_seconds",
		Help:    "Wall time of one full sampling cycle across the catalog.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	cycles, err = registerHistogram(reg, cycles, "telemetry_cycle_duration_seconds")
	if err != nil {
		return nil, err
	}

	depth, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "telemetry_bus_depth",
		Help: "Samples currently buffered in the telemetry bus.",
	}), "telemetry_bus_depth")
	if err != nil {
		return nil, err
	}

	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_sink_writes_total",
		Help: "Successful sink appends, labeled by sink (binary, structured, anomaly).",
	}, []string{"sink"})
	writes, err = registerCounterVec(reg, writes, "telemetry_sink_writes_total")
	if err != nil {
		return nil, err
	}

	sinkErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_sink_errors_total",
		Help: "Failed sink appends, labeled by sink. Failures are isolated per sink.",
	}, []string{"sink"})
	sinkErrors, err = registerCounterVec(reg, sinkErrors, "telemetry_sink_errors_total")
	if err != nil {
		return nil, err
	}

	anomalies, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_anomaly_events_total",
		Help: "Samples whose SNR fell below the degraded threshold.",
	}), "telemetry_anomaly_events_total")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:         gatherer,
		SamplesHarvested: samples,
		HarvestErrors:    harvestErrors,
		CycleDuration:    cycles,
		BusDepth:         depth,
		SinkWrites:       writes,
		SinkErrors:       sinkErrors,
		AnomalyEvents:    anomalies,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// All recording helpers tolerate a nil receiver so components can run
// without metrics wired (tests, tooling).

func (c *PipelineCollector) RecordSample(status string) {
	if c == nil || c.SamplesHarvested == nil {
		return
	}
	c.SamplesHarvested.WithLabelValues(status).Inc()
}

func (c *PipelineCollector) RecordHarvestError() {
	if c == nil || c.HarvestErrors == nil {
		return
	}
	c.HarvestErrors.Inc()
}

func (c *PipelineCollector) ObserveCycle(d time.Duration) {
	if c == nil || c.CycleDuration == nil {
		return
	}
	c.CycleDuration.Observe(d.Seconds())
}

func (c *PipelineCollector) SetBusDepth(n int) {
	if c == nil || c.BusDepth == nil {
		return
	}
	c.BusDepth.Set(float64(n))
}

func (c *PipelineCollector) RecordSinkWrite(sink string) {
	if c == nil || c.SinkWrites == nil {
		return
	}
	c.SinkWrites.WithLabelValues(sink).Inc()
}

func (c *PipelineCollector) RecordSinkError(sink string) {
	if c == nil || c.SinkErrors == nil {
		return
	}
	c.SinkErrors.WithLabelValues(sink).Inc()
}

func (c *PipelineCollector) RecordAnomaly() {
	if c == nil || c.AnomalyEvents == nil {
		return
	}
	c.AnomalyEvents.Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
