// Package analysis turns raw extracted text into normalized text and derives
// the confidence score, document type and medical keyword matches from it.
// Every function here is pure and deterministic.
package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// MinLineRunes is the shortest line kept by the cleanup pass.
	MinLineRunes = 3
	// MinAlphaRatio is the lowest share of letters among non-space runes a line may have.
	MinAlphaRatio = 0.3
)

var ligatures = strings.NewReplacer(
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬅ", "st",
	"ﬆ", "st",
)

// pageNumberRe matches lines that only carry a page number: "12", "Page 3", "3 of 10", "- 4 -".
var pageNumberRe = regexp.MustCompile(`(?i)^[-–—\s]*(page\s*)?\d+(\s*(of|/)\s*\d+)?[-–—\s]*$`)

// Normalize cleans raw extracted text independently of the engine that produced it.
// Lines are ligature-fixed and whitespace-collapsed; empty, page-number, short and
// low-signal lines are dropped. Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = ligatures.Replace(text)

	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := CollapseSpace(stripNonPrintable(raw))
		if KeepLine(line) {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// CollapseSpace replaces every run of whitespace with one space and trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// KeepLine reports whether an already whitespace-collapsed line carries enough signal.
func KeepLine(line string) bool {
	if line == "" {
		return false
	}
	if len([]rune(line)) < MinLineRunes {
		return false
	}
	if pageNumberRe.MatchString(line) {
		return false
	}
	return AlphaRatio(line) >= MinAlphaRatio
}

// AlphaRatio is the share of letters among the non-space runes of s.
func AlphaRatio(s string) float64 {
	var letters, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

// Lines returns the non-empty lines of normalized text.
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func stripNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if r == unicode.ReplacementChar {
			return -1
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}
