package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetvalidator/internal/config"
	"vetvalidator/internal/model"
)

func testMetricsEngine() *MetricsEngine {
	return NewMetricsEngine(config.ValidationConfig{
		LowCoveragePct:  50,
		LowConfidence:   0.6,
		GoodCoveragePct: 80,
		GoodConfidence:  0.8,
	})
}

func TestMetricsEngine_Compute_FullCoverageHighConfidence(t *testing.T) {
	engine := testMetricsEngine()

	metrics := engine.Compute([][]model.Citation{
		{{Document: "assessment.pdf", Confidence: 0.9}},
		{{Document: "assessment.pdf", Confidence: 0.9}},
	})

	assert.Equal(t, 2, metrics.CitationCount)
	assert.InDelta(t, 100.0, metrics.CitationCoverage, 1e-9)
	assert.InDelta(t, 0.9, metrics.AverageConfidence, 1e-9)
	assert.False(t, metrics.Flags.NoCitations)
	assert.False(t, metrics.Flags.LowCoverage)
	assert.False(t, metrics.Flags.LowConfidence)
	assert.True(t, metrics.Flags.GoodQuality)
}

func TestMetricsEngine_Compute_SparseEvidence(t *testing.T) {
	engine := testMetricsEngine()

	metrics := engine.Compute([][]model.Citation{
		{{Document: "assessment.pdf", Confidence: 0.5}},
		nil,
		nil,
		nil,
	})

	assert.Equal(t, 1, metrics.CitationCount)
	assert.InDelta(t, 25.0, metrics.CitationCoverage, 1e-9)
	assert.InDelta(t, 0.5, metrics.AverageConfidence, 1e-9)
	assert.False(t, metrics.Flags.NoCitations)
	assert.True(t, metrics.Flags.LowCoverage)
	assert.True(t, metrics.Flags.LowConfidence)
	assert.False(t, metrics.Flags.GoodQuality)
}

func TestMetricsEngine_Compute_NoCitations(t *testing.T) {
	engine := testMetricsEngine()

	metrics := engine.Compute([][]model.Citation{nil, nil})

	assert.Equal(t, 0, metrics.CitationCount)
	assert.Zero(t, metrics.CitationCoverage)
	assert.Zero(t, metrics.AverageConfidence)
	assert.True(t, metrics.Flags.NoCitations)
	assert.True(t, metrics.Flags.LowCoverage)
	assert.True(t, metrics.Flags.LowConfidence)
	assert.False(t, metrics.Flags.GoodQuality)
}

func TestMetricsEngine_Compute_EmptySession(t *testing.T) {
	engine := testMetricsEngine()

	metrics := engine.Compute(nil)

	assert.Equal(t, 0, metrics.CitationCount)
	assert.Zero(t, metrics.CitationCoverage)
	assert.True(t, metrics.Flags.NoCitations)
}

func TestMetricsEngine_Compute_OrderIndependent(t *testing.T) {
	engine := testMetricsEngine()

	input := [][]model.Citation{
		{{Document: "a.pdf", Confidence: 0.9}, {Document: "b.pdf", Confidence: 0.3}},
		nil,
		{{Document: "c.pdf", Confidence: 0.7}},
	}
	permuted := [][]model.Citation{input[2], input[0], input[1]}

	require.Equal(t, engine.Compute(input), engine.Compute(permuted))
}

func TestRequirementMetrics(t *testing.T) {
	m := RequirementMetrics([]model.Citation{
		{Confidence: 0.4},
		{Confidence: 0.8},
	})
	assert.Equal(t, 2, m.CitationCount)
	assert.InDelta(t, 0.6, m.AverageConfidence, 1e-9)

	empty := RequirementMetrics(nil)
	assert.Equal(t, 0, empty.CitationCount)
	assert.Zero(t, empty.AverageConfidence)
}
