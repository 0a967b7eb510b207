// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetengo-go/tetengo/trie"
)

// TestBuildMetricsObservesBuild registers a BuildMetrics with a real
// prometheus.Registry, drives a Build through WithMetrics, and asserts the
// histogram and counters actually recorded the build rather than sitting
// unused.
func TestBuildMetricsObservesBuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := trie.NewBuildMetrics(reg)
	require.NoError(t, err)

	_, err = trie.Build(addresses(), trie.Uint32Serializer{}, trie.WithMetrics(m))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	durationFamily, ok := byName["tetengo_trie_build_duration_seconds"]
	require.True(t, ok, "build_duration_seconds histogram not registered")
	require.Len(t, durationFamily.Metric, 1)
	assert.EqualValues(t, 1, durationFamily.Metric[0].GetHistogram().GetSampleCount())

	keysFamily, ok := byName["tetengo_trie_build_keys_total"]
	require.True(t, ok, "build_keys_total counter not registered")
	require.Len(t, keysFamily.Metric, 1)
	assert.Equal(t, float64(len(addresses())), keysFamily.Metric[0].GetCounter().GetValue())

	slotsFamily, ok := byName["tetengo_trie_build_slots"]
	require.True(t, ok, "build_slots gauge not registered")
	require.Len(t, slotsFamily.Metric, 1)
	assert.Greater(t, slotsFamily.Metric[0].GetGauge().GetValue(), 0.0)

	// A second Build against the same BuildMetrics accumulates the counter
	// and re-observes the histogram and gauge.
	_, err = trie.Build(addresses(), trie.Uint32Serializer{}, trie.WithMetrics(m))
	require.NoError(t, err)

	families, err = reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		byName[f.GetName()] = f
	}
	assert.EqualValues(t, 2, byName["tetengo_trie_build_duration_seconds"].Metric[0].GetHistogram().GetSampleCount())
	assert.Equal(t, float64(2*len(addresses())), byName["tetengo_trie_build_keys_total"].Metric[0].GetCounter().GetValue())
}
