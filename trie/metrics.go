// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BuildMetrics records prometheus observations for calls to [Build]. The
// zero value is not usable; construct one with [NewBuildMetrics].
type BuildMetrics struct {
	duration prometheus.Histogram
	keys     prometheus.Counter
	slots    prometheus.Gauge
}

// NewBuildMetrics creates a BuildMetrics and registers its collectors with
// reg. Pass the result to [WithMetrics] to have [Build] populate it.
func NewBuildMetrics(reg prometheus.Registerer) (*BuildMetrics, error) {
	m := &BuildMetrics{
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tetengo",
			Subsystem: "trie",
			Name:      "build_duration_seconds",
			Help:      "Time spent in Build, from the end of the input sort and duplicate check through the final leaf placement.",
			Buckets:   prometheus.DefBuckets,
		}),
		keys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tetengo",
			Subsystem: "trie",
			Name:      "build_keys_total",
			Help:      "Total number of keys passed to Build calls using this BuildMetrics, including calls whose placement fails.",
		}),
		slots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tetengo",
			Subsystem: "trie",
			Name:      "build_slots",
			Help:      "Size of the base/check arrays after the most recent Build call.",
		}),
	}
	for _, c := range []prometheus.Collector{m.duration, m.keys, m.slots} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// startBuild records the start of a build of keyCount keys and returns a
// function to call when the build finishes (successfully or not).
func (m *BuildMetrics) startBuild(keyCount int) func() {
	start := time.Now()
	return func() {
		m.duration.Observe(time.Since(start).Seconds())
		m.keys.Add(float64(keyCount))
	}
}

// observeSlots records the final base/check array size of a completed
// build.
func (m *BuildMetrics) observeSlots(n int) {
	m.slots.Set(float64(n))
}
