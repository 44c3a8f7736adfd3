package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

type stubChat struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubChat) Chat(_ context.Context, _, _ string) (string, error) {
	i := s.calls
	s.calls++
	var resp string
	var err error
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return resp, err
}

func TestGenerateNoNegatives(t *testing.T) {
	r := NewRecommender(&stubChat{})
	recs := r.Generate(context.Background(), nil)
	assert.Equal(t, []string{"No sufficiently negative feedback found to generate recommendations."}, recs)

	recs = r.Generate(context.Background(), []string{"  ", ""})
	assert.Equal(t, []string{"No sufficiently negative feedback found to generate recommendations."}, recs)
}

func TestGenerateParsesJSONArray(t *testing.T) {
	stub := &stubChat{responses: []string{
		`Here you go: ["Fix login crashes", "Clarify trial cancellation", "Improve sync speed"]`,
	}}
	r := NewRecommender(stub)

	recs := r.Generate(context.Background(), []string{"app keeps crashing on login"})
	assert.Equal(t, []string{"Fix login crashes", "Clarify trial cancellation", "Improve sync speed"}, recs)
	assert.Equal(t, 1, stub.calls)
}

func TestGenerateCapsAtFive(t *testing.T) {
	stub := &stubChat{responses: []string{
		`["one fix here","two fix here","three fix here","four fix here","five fix here","six fix here"]`,
	}}
	r := NewRecommender(stub)

	recs := r.Generate(context.Background(), []string{"bad"})
	assert.Len(t, recs, 5)
}

func TestGenerateDedupes(t *testing.T) {
	stub := &stubChat{responses: []string{
		`["Fix login crashes.","fix login crashes","Improve sync speed","Reduce battery drain"]`,
	}}
	r := NewRecommender(stub)

	recs := r.Generate(context.Background(), []string{"bad"})
	assert.Equal(t, []string{"Fix login crashes", "Improve sync speed", "Reduce battery drain"}, recs)
}

func TestGenerateFallsBackToBullets(t *testing.T) {
	stub := &stubChat{responses: []string{
		`I cannot produce JSON right now.`,
		"Sure:\n- Fix crashes on startup\n- bad\n- Clarify subscription pricing upfront\n- Improve offline mode reliability",
	}}
	r := NewRecommender(stub)

	recs := r.Generate(context.Background(), []string{"bad"})
	assert.Equal(t, []string{
		"Fix crashes on startup",
		"Clarify subscription pricing upfront",
		"Improve offline mode reliability",
	}, recs)
	assert.Equal(t, 2, stub.calls)
}

func TestGenerateTooFewJSONItemsTriggersRetry(t *testing.T) {
	stub := &stubChat{responses: []string{
		`["Fix login crashes","Improve sync speed"]`,
		"- Fix crashes on startup\n- Clarify subscription pricing upfront\n- Improve offline mode reliability",
	}}
	r := NewRecommender(stub)

	recs := r.Generate(context.Background(), []string{"bad"})
	assert.Len(t, recs, 3)
	assert.Equal(t, 2, stub.calls)
}

func TestGenerateGenericFallback(t *testing.T) {
	stub := &stubChat{
		responses: []string{"", ""},
		errs:      []error{errors.New("connection refused"), errors.New("connection refused")},
	}
	r := NewRecommender(stub)

	recs := r.Generate(context.Background(), []string{"bad experience overall"})
	assert.Equal(t, genericRecommendations, recs)
}

func TestGenerateNilClient(t *testing.T) {
	r := NewRecommender(nil)
	recs := r.Generate(context.Background(), []string{"bad experience overall"})
	assert.Equal(t, genericRecommendations, recs)
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "plain array",
			in:       `["a","b"]`,
			expected: `["a","b"]`,
		},
		{
			name:     "surrounded by prose",
			in:       `here it is: ["a","b"] hope that helps`,
			expected: `["a","b"]`,
		},
		{
			name:     "bracket inside string",
			in:       `["fix [urgent] bug","other"]`,
			expected: `["fix [urgent] bug","other"]`,
		},
		{
			name:     "no array",
			in:       "nothing here",
			expected: "",
		},
		{
			name:     "unbalanced",
			in:       `["a","b"`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONArray(tt.in))
		})
	}
}

func TestFormatReviewsBlockTruncatesOnRuneBoundary(t *testing.T) {
	// The leading ASCII byte misaligns the 3-byte runes so a naive
	// byte-index cut would land mid-rune.
	text := "a" + strings.Repeat("界", 120)

	block := formatReviewsBlock([]string{text})
	assert.True(t, utf8.ValidString(block))
	assert.Less(t, len(block), len(text))
}

func TestFormatReviewsBlockSamplesHeadAndTail(t *testing.T) {
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = string(rune('a'+i)) + " review"
	}

	block := formatReviewsBlock(texts)
	assert.Contains(t, block, "a review")
	assert.Contains(t, block, "t review")
	assert.NotContains(t, block, "j review")
}
