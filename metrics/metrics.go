// Package metrics provides Prometheus metrics for configuration resolution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cobble"

// Collector holds all Prometheus metrics of the resolution engine.
// A nil *Collector is valid and records nothing.
type Collector struct {
	// Source metrics
	SourceFetches       *prometheus.CounterVec
	SourceFetchDuration *prometheus.HistogramVec

	// Descriptor metrics
	DescriptorLookups *prometheus.CounterVec

	// Resolution metrics
	Resolutions        *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram

	// Reload metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector with all metrics registered on reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		SourceFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetches_total",
				Help:      "Total number of source fetches by transport and outcome",
			},
			[]string{"transport", "outcome"},
		),
		SourceFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_fetch_duration_seconds",
				Help:      "Source fetch duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"transport"},
		),
		DescriptorLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "descriptor_lookups_total",
				Help:      "Total number of descriptor lookups by origin (well_known or source)",
			},
			[]string{"origin"},
		),
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of configuration resolutions by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Configuration resolution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed configuration reloads",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp_seconds",
				Help:      "Unix timestamp of the last successful configuration reload",
			},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveFetch records a single source fetch.
func (c *Collector) ObserveFetch(transport string, err error, d time.Duration) {
	if c == nil {
		return
	}
	c.SourceFetches.WithLabelValues(transport, outcome(err)).Inc()
	c.SourceFetchDuration.WithLabelValues(transport).Observe(d.Seconds())
}

// ObserveDescriptorLookup records where a descriptor was taken from.
func (c *Collector) ObserveDescriptorLookup(origin string) {
	if c == nil {
		return
	}
	c.DescriptorLookups.WithLabelValues(origin).Inc()
}

// ObserveResolution records a whole ReadAll call.
func (c *Collector) ObserveResolution(err error, d time.Duration) {
	if c == nil {
		return
	}
	c.Resolutions.WithLabelValues(outcome(err)).Inc()
	c.ResolutionDuration.Observe(d.Seconds())
}

// ObserveReload records a holder reload attempt.
func (c *Collector) ObserveReload(err error, at time.Time) {
	if c == nil {
		return
	}
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(at.Unix()))
}
