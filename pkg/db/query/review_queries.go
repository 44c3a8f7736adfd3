package query

import (
	"github.com/reviewdeck/reviewdeck/pkg/db"
	"github.com/reviewdeck/reviewdeck/pkg/db/models"
)

// ListReviews returns up to limit stored reviews for an app/country
// pair, most recent publication date first with undated rows last.
func ListReviews(dbc *db.DB, appID, country string, limit int) ([]models.Review, error) {
	var rows []models.Review
	res := dbc.DB.
		Where("app_id = ? AND country = ?", appID, country).
		Order("date DESC NULLS LAST").
		Limit(limit).
		Find(&rows)
	return rows, res.Error
}

// AllReviews returns every stored review for an app/country pair.
func AllReviews(dbc *db.DB, appID, country string) ([]models.Review, error) {
	var rows []models.Review
	res := dbc.DB.
		Where("app_id = ? AND country = ?", appID, country).
		Find(&rows)
	return rows, res.Error
}

// ReviewCount returns the number of stored reviews for an app/country
// pair.
func ReviewCount(dbc *db.DB, appID, country string) (int64, error) {
	var count int64
	res := dbc.DB.Model(&models.Review{}).
		Where("app_id = ? AND country = ?", appID, country).
		Count(&count)
	return count, res.Error
}

// RatingCounts tallies stored reviews by rating value for an
// app/country pair.
func RatingCounts(dbc *db.DB, appID, country string) (map[int]int, error) {
	var results []struct {
		Rating int
		Total  int
	}
	q := dbc.DB.Model(&models.Review{}).
		Select("rating, COUNT(*) AS total").
		Where("app_id = ? AND country = ?", appID, country).
		Group("rating").
		Scan(&results)
	if q.Error != nil {
		return nil, q.Error
	}

	counts := make(map[int]int, len(results))
	for _, r := range results {
		counts[r.Rating] = r.Total
	}
	return counts, nil
}
