package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func nLines(n int, line string) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("%s %d", line, i)
	}
	return strings.Join(lines, "\n")
}

func TestScoreEmptyText(t *testing.T) {
	for _, tier := range []Tier{TierNone, TierStructured, TierPage, TierVision, TierRaw} {
		assert.Equal(t, 0.0, Score("", tier, 0))
	}
}

func TestScoreBaseByTier(t *testing.T) {
	text := "short plain line"
	assert.Equal(t, 0.85, Score(text, TierStructured, 0))
	assert.Equal(t, 0.70, Score(text, TierPage, 0))
	assert.Equal(t, 0.65, Score(text, TierVision, 0))
	assert.Equal(t, 0.50, Score(text, TierRaw, 0))
	assert.Equal(t, 0.10, Score(text, TierNone, 0))

	// later tiers in the chain never start above earlier ones
	tiers := []Tier{TierStructured, TierPage, TierVision, TierRaw, TierNone}
	for i := 1; i < len(tiers); i++ {
		assert.Less(t, tiers[i].base(), tiers[i-1].base(), tiers[i].String())
	}
}

func TestScoreBonuses(t *testing.T) {
	// two density terms -> +0.1
	assert.Equal(t, 0.6, Score("patient seen by doctor", TierRaw, 0))
	// keyword bonus caps at 0.2
	all := strings.Join(densityTerms, " ")
	assert.Equal(t, 0.9, Score(all, TierPage, 0))
	// more than 5 lines -> +0.1, more than 20 -> +0.2
	assert.Equal(t, 0.8, Score(nLines(6, "plain row"), TierPage, 0))
	assert.Equal(t, 0.9, Score(nLines(21, "plain row"), TierPage, 0))
	// more than 3 complete sentences -> +0.1
	sentences := "The first sentence is long. The second sentence is long! Is the third one long? The fourth sentence is long."
	assert.Equal(t, 0.8, Score(sentences, TierPage, 0))
}

func TestScoreCeilings(t *testing.T) {
	rich := strings.Join(densityTerms, " ") + ". " + nLines(25, "The patient sentence is complete.")
	assert.Equal(t, 0.95, Score(rich, TierStructured, 0))
	assert.Equal(t, 0.99, Score(rich, TierStructured, 3))
	assert.Equal(t, 0.95, Score(rich, TierPage, 3))
	assert.Equal(t, 0.95, Score(rich, TierVision, 0))
	assert.Equal(t, 0.6, Score(rich, TierRaw, 0))
	assert.Equal(t, 0.1, Score(rich, TierNone, 0))
}

func TestScoreBounds(t *testing.T) {
	texts := []string{"", "x", "patient", nLines(40, "Patient diagnosis treatment."), "a. b. c. d. e."}
	for _, text := range texts {
		for _, tier := range []Tier{TierNone, TierStructured, TierPage, TierVision, TierRaw} {
			for _, rows := range []int{0, 5} {
				s := Score(text, tier, rows)
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, MaxConfidence)
			}
		}
	}
}

func TestScoreMonotonicInLines(t *testing.T) {
	prev := 0.0
	for n := 1; n <= 30; n++ {
		s := Score(nLines(n, "observation row"), TierPage, 0)
		assert.GreaterOrEqual(t, s, prev, "lines=%d", n)
		prev = s
	}
}

func TestQuality(t *testing.T) {
	assert.Equal(t, QualityExcellent, Quality(0.95, 21))
	assert.Equal(t, QualityGood, Quality(0.95, 15))
	assert.Equal(t, QualityGood, Quality(0.75, 11))
	assert.Equal(t, QualityFair, Quality(0.65, 6))
	assert.Equal(t, QualityPoor, Quality(0.65, 5))
	assert.Equal(t, QualityPoor, Quality(0.5, 100))
}
