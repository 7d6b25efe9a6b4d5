package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes integration progress as Prometheus metrics. Each
// collector owns its registry so runs in one process do not collide.
type Collector struct {
	registry *prometheus.Registry

	steps      prometheus.Counter
	rebuilds   prometheus.Counter
	forceTime  prometheus.Histogram
	emissions  *prometheus.CounterVec
	temp       prometheus.Gauge
	kinetic    prometheus.Gauge
	potential  prometheus.Gauge
	targetTemp prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edamame",
			Name:      "steps_total",
			Help:      "Integration steps completed.",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edamame",
			Name:      "neighbor_rebuilds_total",
			Help:      "Neighbor list generations.",
		}),
		forceTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "edamame",
			Name:      "force_evaluation_seconds",
			Help:      "Wall time of force field evaluations.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		emissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edamame",
			Name:      "samples_emitted_total",
			Help:      "Samples written, by schedule kind.",
		}, []string{"kind"}),
		temp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "edamame",
			Name:      "temperature",
			Help:      "Instantaneous temperature.",
		}),
		kinetic: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "edamame",
			Name:      "kinetic_energy",
			Help:      "Kinetic energy.",
		}),
		potential: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "edamame",
			Name:      "potential_energy",
			Help:      "Potential energy.",
		}),
		targetTemp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "edamame",
			Name:      "target_temperature",
			Help:      "Thermostat target temperature.",
		}),
	}
	reg.MustRegister(c.steps, c.rebuilds, c.forceTime, c.emissions, c.temp, c.kinetic, c.potential, c.targetTemp)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) StepDone()                   { c.steps.Inc() }
func (c *Collector) Rebuilt()                    { c.rebuilds.Inc() }
func (c *Collector) ForceEval(d time.Duration)   { c.forceTime.Observe(d.Seconds()) }
func (c *Collector) Emitted(kind string)         { c.emissions.WithLabelValues(kind).Inc() }
func (c *Collector) TargetTemperature(T float64) { c.targetTemp.Set(T) }

// Observe updates the thermodynamic gauges.
func (c *Collector) Observe(s Sample) {
	c.temp.Set(s.Temperature)
	c.kinetic.Set(s.Kinetic)
	c.potential.Set(s.Potential)
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
