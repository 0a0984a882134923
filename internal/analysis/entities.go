package analysis

import (
	"strings"
	"unicode"

	"github.com/medpal/docextract/internal/models"
)

// ContextRadius is the number of runes kept on each side of an entity keyword.
const ContextRadius = 30

type entityCategory struct {
	name     string
	keywords []string
}

// entityTaxonomy is listed in output priority order.
var entityTaxonomy = []entityCategory{
	{"medications", []string{"prescription", "dosage", "tablets", "aspirin", "ibuprofen", "acetaminophen", "metformin", "lisinopril", "atorvastatin", "omeprazole"}},
	{"conditions", []string{"diabetes", "hypertension", "asthma", "copd", "heart disease", "obesity", "arthritis"}},
	{"tests", []string{"blood pressure", "cholesterol", "glucose", "hemoglobin", "x-ray", "mri", "ecg"}},
	{"measurements", []string{"mg", "ml", "mmol", "mg/dl", "blood pressure", "temperature", "weight"}},
	{"symptoms", []string{"pain", "fever", "cough", "shortness of breath", "fatigue", "nausea", "dizziness"}},
	{"anatomy", []string{"heart", "lung", "liver", "kidney", "brain", "stomach", "chest"}},
}

// ExtractEntities returns one match per taxonomy keyword present in text, in
// taxonomy order. A keyword listed under two categories yields two matches.
// limit <= 0 returns every match.
func ExtractEntities(text string, limit int) []models.EntityMatch {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	if len(lower) != len(runes) {
		// Case folding changed the rune count; fall back to matching on the folded text.
		runes = lower
	}
	lowerStr := string(lower)

	var matches []models.EntityMatch
	for _, cat := range entityTaxonomy {
		for _, kw := range cat.keywords {
			pos := indexKeyword(lowerStr, kw)
			if pos < 0 {
				continue
			}
			start := len([]rune(lowerStr[:pos]))
			matches = append(matches, models.EntityMatch{
				Category: cat.name,
				Keyword:  kw,
				Context:  contextWindow(runes, start, len([]rune(kw))),
			})
			if limit > 0 && len(matches) == limit {
				return matches
			}
		}
	}
	return matches
}

func contextWindow(runes []rune, start, n int) string {
	from := start - ContextRadius
	if from < 0 {
		from = 0
	}
	to := start + n + ContextRadius
	if to > len(runes) {
		to = len(runes)
	}
	return CollapseSpace(string(runes[from:to]))
}

// containsTerm reports whether kw occurs in lower-cased text.
func containsTerm(lower, kw string) bool {
	return indexTerm(lower, kw) >= 0
}

// indexTerm finds the first occurrence of kw. Keywords of three letters or
// fewer only match as whole words so "mg" does not hit inside "imaging".
func indexTerm(lower, kw string) int {
	if len(kw) > 3 {
		return strings.Index(lower, kw)
	}
	return indexWord(lower, kw)
}

// indexKeyword finds an entity keyword. Phrases match anywhere; single words
// only match whole, optionally pluralized, so "pain" does not hit "painting".
func indexKeyword(lower, kw string) int {
	if strings.Contains(kw, " ") {
		return strings.Index(lower, kw)
	}
	return indexWord(lower, kw)
}

func indexWord(lower, kw string) int {
	offset := 0
	for {
		i := strings.Index(lower[offset:], kw)
		if i < 0 {
			return -1
		}
		i += offset
		end := i + len(kw)
		if wordBoundary(lower, i-1) && (wordBoundary(lower, end) || pluralEnd(lower, end)) {
			return i
		}
		offset = i + 1
	}
}

// pluralEnd reports whether an "s" or "es" suffix starting at i ends a word.
func pluralEnd(s string, i int) bool {
	switch {
	case strings.HasPrefix(s[i:], "es"):
		return wordBoundary(s, i+2)
	case strings.HasPrefix(s[i:], "s"):
		return wordBoundary(s, i+1)
	}
	return false
}

func wordBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r := rune(s[i])
	if r >= 0x80 {
		return false
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
