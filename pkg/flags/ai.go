package flags

import (
	"github.com/spf13/pflag"

	"github.com/reviewdeck/reviewdeck/pkg/ai"
)

// AIFlags contains flags for the recommendation model endpoint.
type AIFlags struct {
	Endpoint string
	Model    string
}

func NewAIFlags() *AIFlags {
	return &AIFlags{}
}

func (f *AIFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Endpoint, "ai-endpoint", "", "URL for an OpenAI-compatible endpoint. Set OPENAI_API_KEY to specify an API key.")
	fs.StringVar(&f.Model, "ai-model", "meta-llama/Llama-3.1-8B-Instruct", "The model used to generate recommendations from negative reviews")
}

// GetRecommender returns the recommendation engine. Without an endpoint
// the engine still works, degrading to generic recommendations.
func (f *AIFlags) GetRecommender() *ai.Recommender {
	if f.Endpoint == "" {
		return ai.NewRecommender(nil)
	}
	return ai.NewRecommender(ai.NewLLMClient(f.Endpoint, f.Model))
}
