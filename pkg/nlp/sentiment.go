package nlp

import (
	"github.com/jonreiter/govader"
)

const (
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"
)

// SentimentClassifier assigns one of the three sentiment labels to a
// piece of review text. Classification is deterministic for a given
// input.
type SentimentClassifier interface {
	Classify(text string) string
}

// VaderClassifier scores text with the VADER lexicon model. Construct
// once at startup and inject where needed; the analyzer is read-only
// after construction, so a single instance is safe to share.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Classify maps VADER's compound score onto the three labels using the
// conventional ±0.05 thresholds. Empty text is neutral by convention.
func (c *VaderClassifier) Classify(text string) string {
	if text == "" {
		return SentimentNeutral
	}

	compound := c.analyzer.PolarityScores(text).Compound
	switch {
	case compound <= -0.05:
		return SentimentNegative
	case compound >= 0.05:
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}
