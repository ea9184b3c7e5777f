package app

import (
	"vetvalidator/internal/config"
	"vetvalidator/internal/model"
)

// MetricsEngine derives session-level quality metrics from citation records.
// Thresholds are policy and come from configuration, never constants buried
// here.
type MetricsEngine struct {
	lowCoveragePct  float64
	lowConfidence   float64
	goodCoveragePct float64
	goodConfidence  float64
}

func NewMetricsEngine(cfg config.ValidationConfig) *MetricsEngine {
	return &MetricsEngine{
		lowCoveragePct:  cfg.LowCoveragePct,
		lowConfidence:   cfg.LowConfidence,
		goodCoveragePct: cfg.GoodCoveragePct,
		goodConfidence:  cfg.GoodConfidence,
	}
}

// Compute aggregates over the citations of every requirement in a session.
// It is deterministic and order-independent: permuting the input yields
// identical output.
func (e *MetricsEngine) Compute(citationsPerRequirement [][]model.Citation) model.QualityMetrics {
	totalRequirements := len(citationsPerRequirement)

	var citationCount, covered int
	var confidenceSum float64
	for _, citations := range citationsPerRequirement {
		if len(citations) > 0 {
			covered++
		}
		for _, c := range citations {
			citationCount++
			confidenceSum += c.Confidence
		}
	}

	var coverage float64
	if totalRequirements > 0 {
		coverage = float64(covered) / float64(totalRequirements) * 100
	}
	var avgConfidence float64
	if citationCount > 0 {
		avgConfidence = confidenceSum / float64(citationCount)
	}

	return model.QualityMetrics{
		CitationCount:     citationCount,
		CitationCoverage:  coverage,
		AverageConfidence: avgConfidence,
		Flags: model.QualityFlags{
			NoCitations:   citationCount == 0,
			LowCoverage:   coverage < e.lowCoveragePct,
			LowConfidence: avgConfidence < e.lowConfidence,
			GoodQuality:   citationCount > 0 && coverage >= e.goodCoveragePct && avgConfidence >= e.goodConfidence,
		},
	}
}

// RequirementMetrics computes the per-result metrics stored on a row.
func RequirementMetrics(citations []model.Citation) model.ResultMetrics {
	m := model.ResultMetrics{CitationCount: len(citations)}
	if len(citations) == 0 {
		return m
	}
	var sum float64
	for _, c := range citations {
		sum += c.Confidence
	}
	m.AverageConfidence = sum / float64(len(citations))
	return m
}
