package ai

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const recommenderInstructions = `ROLE: Senior product analyst for a mobile app.
TASK: Read the NEGATIVE_REVIEWS and produce 3-5 ACTIONABLE recommendations for the DEVELOPMENT TEAM.
STYLE: Imperative, concise (at most 18 words each), specific. Do NOT quote or repeat user text.
OUTPUT: STRICTLY a JSON array of strings. No extra text, no markdown.`

const jsonPromptSuffix = `Now output ONLY a JSON array of 3-5 short, actionable recommendations.
Example:
["Clarify trial cancellation flow in-app","Fix unexpected charges during onboarding","Reduce crashes on login"]`

const bulletPromptSuffix = `Output EXACTLY 5 short, actionable recommendations for the dev team,
each on its own line starting with "- ". No other text.
Example:
- Improve cancellation clarity before trial ends
- Prevent unexpected charges during onboarding
- Reduce login crashes on older devices
- Optimize performance on slow networks
- Streamline account recovery and support escalation`

const noNegativesMessage = "No sufficiently negative feedback found to generate recommendations."

const (
	maxRecommendations  = 5
	minRecommendations  = 3
	reviewBlockMaxItems = 10
	reviewBlockMaxChars = 240
)

// genericRecommendations is the last-resort output when the model is
// unreachable or never produces a parseable answer.
var genericRecommendations = []string{
	"Reduce crashes and errors in top user flows",
	"Clarify pricing, trials and cancellation inside the app",
	"Improve login and account recovery reliability",
	"Optimize performance on older devices and slow networks",
	"Tighten billing, refunds and support escalation paths",
}

// Recommender turns negative review texts into a short list of
// actionable items for the development team. Generate never fails: any
// model error degrades to a generic set of recommendations.
type Recommender struct {
	llm ChatClient
}

func NewRecommender(llm ChatClient) *Recommender {
	return &Recommender{llm: llm}
}

func (r *Recommender) Generate(ctx context.Context, negativeTexts []string) []string {
	block := formatReviewsBlock(negativeTexts)
	if block == "(none)" {
		return []string{noNegativesMessage}
	}
	if r.llm == nil {
		return genericRecommendations
	}

	// First attempt: strict JSON array.
	data := "NEGATIVE_REVIEWS (for analysis only, DO NOT QUOTE OR REPEAT):\n" + block + "\n\n" + jsonPromptSuffix
	out, err := r.llm.Chat(ctx, recommenderInstructions, data)
	if err != nil {
		log.WithError(err).Warn("recommendation model request failed")
	} else if recs := parseJSONRecommendations(out); recs != nil {
		return recs
	}

	// Second attempt: bullet list.
	data = "NEGATIVE_REVIEWS (for analysis only):\n" + block + "\n\n" + bulletPromptSuffix
	out, err = r.llm.Chat(ctx, recommenderInstructions, data)
	if err != nil {
		log.WithError(err).Warn("recommendation model retry failed")
	} else if recs := parseBulletRecommendations(out); len(recs) > 0 {
		return recs
	}

	return genericRecommendations
}

func parseJSONRecommendations(out string) []string {
	blob := extractJSONArray(out)
	if blob == "" {
		return nil
	}

	var items []string
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return nil
	}

	items = dedupeKeepOrder(items)
	if len(items) > maxRecommendations {
		items = items[:maxRecommendations]
	}
	if len(items) < minRecommendations {
		return nil
	}
	return items
}

func parseBulletRecommendations(out string) []string {
	var items []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		item := strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if len(strings.Fields(item)) < 3 {
			continue
		}
		items = append(items, item)
	}

	items = dedupeKeepOrder(items)
	if len(items) > maxRecommendations {
		items = items[:maxRecommendations]
	}
	return items
}

// extractJSONArray returns the first balanced JSON array in text,
// tracking string literals so brackets inside them don't count.
func extractJSONArray(text string) string {
	start := strings.IndexByte(text, '[')
	if start == -1 {
		return ""
	}

	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func dedupeKeepOrder(items []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, item := range items {
		item = strings.TrimRight(strings.TrimSpace(item), ".")
		key := strings.ToLower(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// formatReviewsBlock builds a compact bullet list of review texts,
// sampling from the head and tail when there are more than
// reviewBlockMaxItems of them.
func formatReviewsBlock(texts []string) string {
	var clean []string
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return "(none)"
	}

	sample := clean
	if len(clean) > reviewBlockMaxItems {
		half := reviewBlockMaxItems / 2
		sample = append(append([]string{}, clean[:half]...), clean[len(clean)-half:]...)
	}

	var sb strings.Builder
	for _, t := range sample {
		sb.WriteString("\n- ")
		sb.WriteString(truncateRunes(t, reviewBlockMaxChars))
	}
	return sb.String()
}

// truncateRunes cuts s to at most max bytes without splitting a
// multi-byte rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
