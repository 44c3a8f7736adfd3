package api

import (
	"net/http"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	apitype "github.com/reviewdeck/reviewdeck/pkg/apis/reviews/v1"
	"github.com/reviewdeck/reviewdeck/pkg/db"
	"github.com/reviewdeck/reviewdeck/pkg/db/query"
	"github.com/reviewdeck/reviewdeck/pkg/util"
)

// ComputeMetrics summarizes the stored ratings for an app/country pair:
// total count, average rating, and the percentage distribution per star
// value. No stored reviews yields zero values and an empty distribution.
func ComputeMetrics(dbc *db.DB, appID, country string) (apitype.MetricsOut, error) {
	out := apitype.MetricsOut{
		AppID:        appID,
		Country:      country,
		Distribution: map[string]float64{},
	}

	counts, err := query.RatingCounts(dbc, appID, country)
	if err != nil {
		return out, errors.Wrap(err, "could not query rating counts")
	}
	if len(counts) == 0 {
		return out, nil
	}

	total := 0
	ratings := make([]float64, 0)
	for rating, count := range counts {
		total += count
		for i := 0; i < count; i++ {
			ratings = append(ratings, float64(rating))
		}
	}

	avg, err := stats.Mean(ratings)
	if err != nil {
		return out, errors.Wrap(err, "could not compute average rating")
	}

	out.Count = total
	out.AverageRating = util.Round2(avg)
	for rating, count := range counts {
		out.Distribution[strconv.Itoa(rating)] = util.Round2(float64(count) * 100.0 / float64(total))
	}
	return out, nil
}

// PrintMetrics responds with the rating metrics for the app/country
// pair in the request query.
func PrintMetrics(w http.ResponseWriter, req *http.Request, dbc *db.DB) {
	appID := req.URL.Query().Get("app_id")
	country := req.URL.Query().Get("country")
	if appID == "" || country == "" {
		RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": "app_id and country are required",
		})
		return
	}

	metrics, err := ComputeMetrics(dbc, appID, country)
	if err != nil {
		RespondWithJSON(http.StatusInternalServerError, w, map[string]interface{}{
			"code":    http.StatusInternalServerError,
			"message": "Could not compute metrics: " + err.Error(),
		})
		return
	}

	RespondWithJSON(http.StatusOK, w, metrics)
}
