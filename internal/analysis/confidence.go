package analysis

import (
	"math"
	"strings"
)

// MaxConfidence is the highest score any extraction can receive.
const MaxConfidence = 0.99

// Quality labels derived from confidence and line count.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
)

// densityTerms is the vocabulary behind the keyword density bonus.
var densityTerms = []string{
	"patient",
	"doctor",
	"diagnosis",
	"medication",
	"treatment",
	"hospital",
	"laboratory",
	"prescription",
}

// Score computes a heuristic confidence in [0, MaxConfidence] for normalized text
// produced by tier. tableRows is the number of table rows the engine recovered.
// The score never decreases when keyword hits, line count or complete sentences grow.
func Score(text string, tier Tier, tableRows int) float64 {
	lines := Lines(text)
	if len(lines) == 0 {
		return 0
	}
	lower := strings.ToLower(text)

	score := tier.base()
	score += keywordBonus(lower)
	score += structureBonus(len(lines))
	score += sentenceBonus(text)

	score = math.Min(score, tier.ceiling(tableRows))
	score = math.Max(score, 0)
	return math.Round(score*10000) / 10000
}

func keywordBonus(lower string) float64 {
	hits := 0
	for _, term := range densityTerms {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return math.Min(float64(hits)*0.05, 0.2)
}

func structureBonus(lines int) float64 {
	bonus := 0.0
	if lines > 5 {
		bonus += 0.1
	}
	if lines > 20 {
		bonus += 0.1
	}
	return bonus
}

func sentenceBonus(text string) float64 {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	complete := 0
	for _, f := range fragments {
		if len(strings.TrimSpace(f)) > 10 {
			complete++
		}
	}
	if complete > 3 {
		return 0.1
	}
	return 0
}

// Quality maps a confidence and line count onto a coarse quality label.
func Quality(confidence float64, lines int) string {
	switch {
	case confidence > 0.9 && lines > 20:
		return QualityExcellent
	case confidence > 0.7 && lines > 10:
		return QualityGood
	case confidence > 0.6 && lines > 5:
		return QualityFair
	default:
		return QualityPoor
	}
}
