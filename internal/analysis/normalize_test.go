package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"collapses whitespace", "Patient   name:\t\tJane  Doe", "Patient name: Jane Doe"},
		{"fixes ligatures", "ﬁnal diagnosis ﬂagged by oﬃce", "final diagnosis flagged by office"},
		{"drops page numbers", "Lab report\n12\nPage 3\n3 of 10\n- 4 -\nGlucose normal", "Lab report\nGlucose normal"},
		{"drops short lines", "ab\nok\nheart rate stable", "heart rate stable"},
		{"drops low alpha lines", "12.5 / 33.1 / 88\nHemoglobin 14.2 g/dL", "Hemoglobin 14.2 g/dL"},
		{"unifies line endings", "first line here\r\nsecond line here\rthird line here", "first line here\nsecond line here\nthird line here"},
		{"strips control runes", "Blood\x00 pressure\x07 normal", "Blood pressure normal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"  Patient:  John Smith \n\n 7 \n ﬁbrosis noted in left lung\r\n",
		"Glucose | 95 | 70-100 mg/dL\nCholesterol | 180 | < 200 mg/dL",
		"​zero width​ joiners and\ttabs\tand   spaces",
		strings.Repeat("x1 ", 50) + "\n" + "Page 2 of 2",
		"a\nbb\nccc\n1234\n!!!???\nmixed 123 content here",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestLines(t *testing.T) {
	assert.Nil(t, Lines(""))
	assert.Equal(t, []string{"one line", "two line"}, Lines("one line\n\ntwo line"))
}

func TestAlphaRatio(t *testing.T) {
	assert.Equal(t, 0.0, AlphaRatio(""))
	assert.Equal(t, 1.0, AlphaRatio("abc def"))
	assert.InDelta(t, 0.5, AlphaRatio("ab12"), 1e-9)
}
