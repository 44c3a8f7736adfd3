package util

import (
	"math"
	"strings"
	"unicode"
)

const (
	zeroWidthSpace = '​'
	noBreakSpace   = ' '
)

// CleanText collapses whitespace runs to a single space and trims the
// result. Zero-width spaces (U+200B) and non-breaking spaces (U+00A0)
// found in store review feeds are folded into ordinary spaces first.
func CleanText(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if r == zeroWidthSpace || r == noBreakSpace || unicode.IsSpace(r) {
			if !inSpace {
				b.WriteRune(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// Round2 rounds to two decimal places, the precision used by all
// percentage and average fields in API responses.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
