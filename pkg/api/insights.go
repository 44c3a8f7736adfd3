package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/reviewdeck/reviewdeck/pkg/ai"
	apitype "github.com/reviewdeck/reviewdeck/pkg/apis/reviews/v1"
	"github.com/reviewdeck/reviewdeck/pkg/db"
	"github.com/reviewdeck/reviewdeck/pkg/db/query"
	"github.com/reviewdeck/reviewdeck/pkg/nlp"
	"github.com/reviewdeck/reviewdeck/pkg/util"
)

const topKeywordCount = 15

// ComputeInsights classifies every stored review for an app/country
// pair once, then derives the sentiment mix, the top keywords among the
// negative reviews, and generated recommendations from the same pass.
func ComputeInsights(ctx context.Context, dbc *db.DB, appID, country string,
	classifier nlp.SentimentClassifier, recommender *ai.Recommender) (apitype.InsightsOut, error) {

	out := apitype.InsightsOut{
		AppID:               appID,
		Country:             country,
		SentimentCounts:     map[string]int{},
		SentimentPercent:    map[string]float64{},
		TopNegativeKeywords: []string{},
	}

	rows, err := query.AllReviews(dbc, appID, country)
	if err != nil {
		return out, errors.Wrap(err, "could not query reviews")
	}

	var negatives []string
	for _, row := range rows {
		sentiment := classifier.Classify(row.Text)
		out.SentimentCounts[sentiment]++
		if sentiment == nlp.SentimentNegative {
			negatives = append(negatives, row.Text)
		}
	}

	if total := len(rows); total > 0 {
		for sentiment, count := range out.SentimentCounts {
			out.SentimentPercent[sentiment] = util.Round2(float64(count) * 100.0 / float64(total))
		}
	}

	if keywords := nlp.TopKeywords(negatives, topKeywordCount); keywords != nil {
		out.TopNegativeKeywords = keywords
	}
	out.Recommendations = recommender.Generate(ctx, negatives)
	return out, nil
}

// PrintInsights responds with the review insights for the app/country
// pair in the request query.
func PrintInsights(w http.ResponseWriter, req *http.Request, dbc *db.DB,
	classifier nlp.SentimentClassifier, recommender *ai.Recommender) {

	appID := req.URL.Query().Get("app_id")
	country := req.URL.Query().Get("country")
	if appID == "" || country == "" {
		RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": "app_id and country are required",
		})
		return
	}

	insights, err := ComputeInsights(req.Context(), dbc, appID, country, classifier, recommender)
	if err != nil {
		RespondWithJSON(http.StatusInternalServerError, w, map[string]interface{}{
			"code":    http.StatusInternalServerError,
			"message": "Could not compute insights: " + err.Error(),
		})
		return
	}

	RespondWithJSON(http.StatusOK, w, insights)
}
