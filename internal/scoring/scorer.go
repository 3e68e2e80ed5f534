// Package scoring turns weighted scam indicators into a 0-100 trust score.
package scoring

import (
	"math"

	"dealcheck/internal/listing"
)

// Risk level thresholds on the clamped score. 70 and above is low risk,
// 40-69 medium, below 40 high.
const (
	lowRiskThreshold    = 70
	mediumRiskThreshold = 40
)

// Score folds the indicators into a trust score. The score starts at 100
// and each indicator subtracts weight times a severity multiplier
// (high 3x, medium 1.5x, low 0.5x). The result is clamped to [0, 100] and
// rounded to the nearest integer. An empty indicator list scores 100.
func Score(indicators []listing.ScamIndicator) int {
	score := 100.0
	for _, ind := range indicators {
		score -= float64(ind.Weight) * multiplier(ind.Risk)
	}
	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// multiplier returns the severity multiplier for a risk level. Values
// outside the contract are treated as medium: an assessor that reports a
// risk we don't recognize should still count against the score.
func multiplier(risk listing.Risk) float64 {
	switch risk {
	case listing.RiskHigh:
		return 3
	case listing.RiskLow:
		return 0.5
	default:
		return 1.5
	}
}

// RiskLevelFor maps a clamped score to the overall risk level.
func RiskLevelFor(score int) listing.Risk {
	switch {
	case score >= lowRiskThreshold:
		return listing.RiskLow
	case score >= mediumRiskThreshold:
		return listing.RiskMedium
	default:
		return listing.RiskHigh
	}
}

// Build scores an assessment and assembles the final ScamAnalysis. The
// assessor's summary is passed through verbatim and indicator order is
// preserved for display.
func Build(assessment listing.RiskAssessment) *listing.ScamAnalysis {
	indicators := assessment.Indicators
	if indicators == nil {
		indicators = []listing.ScamIndicator{}
	}
	score := Score(indicators)
	return &listing.ScamAnalysis{
		Score:      score,
		RiskLevel:  RiskLevelFor(score),
		Indicators: indicators,
		Summary:    assessment.Summary,
	}
}
