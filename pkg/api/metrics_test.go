package api

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/reviewdeck/reviewdeck/pkg/db"
	"github.com/reviewdeck/reviewdeck/pkg/db/models"
)

func decodeJSON(rec *httptest.ResponseRecorder, out interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), out)
}

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	dbc, err := db.New(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, dbc.UpdateSchema())
	return dbc
}

func seedReview(t *testing.T, dbc *db.DB, reviewID string, rating int, text string) {
	t.Helper()
	now := time.Now().UTC()
	seedReviewAt(t, dbc, reviewID, rating, text, &now)
}

func seedReviewAt(t *testing.T, dbc *db.DB, reviewID string, rating int, text string, date *time.Time) {
	t.Helper()
	row := models.Review{
		AppID:    "310633997",
		Country:  "us",
		ReviewID: reviewID,
		Author:   "author",
		Title:    "title",
		Text:     text,
		Rating:   rating,
		Version:  "1.0",
		Date:     date,
		Source:   "rss",
		Language: "en",
	}
	require.NoError(t, dbc.DB.Create(&row).Error)
}

func TestComputeMetrics(t *testing.T) {
	dbc := newTestDB(t)
	seedReview(t, dbc, "r1", 5, "great")
	seedReview(t, dbc, "r2", 5, "love it")
	seedReview(t, dbc, "r3", 3, "okay")

	metrics, err := ComputeMetrics(dbc, "310633997", "us")
	require.NoError(t, err)

	assert.Equal(t, "310633997", metrics.AppID)
	assert.Equal(t, "us", metrics.Country)
	assert.Equal(t, 3, metrics.Count)
	assert.Equal(t, 4.33, metrics.AverageRating)
	assert.Equal(t, map[string]float64{"3": 33.33, "5": 66.67}, metrics.Distribution)
}

func TestComputeMetricsEmpty(t *testing.T) {
	dbc := newTestDB(t)

	metrics, err := ComputeMetrics(dbc, "310633997", "us")
	require.NoError(t, err)

	assert.Equal(t, 0, metrics.Count)
	assert.Equal(t, 0.0, metrics.AverageRating)
	assert.Empty(t, metrics.Distribution)
}

func TestComputeMetricsScopedToAppAndCountry(t *testing.T) {
	dbc := newTestDB(t)
	seedReview(t, dbc, "r1", 5, "great")

	other := models.Review{
		AppID: "999", Country: "de", ReviewID: "r2",
		Rating: 1, Text: "schlecht", Source: "rss",
	}
	require.NoError(t, dbc.DB.Create(&other).Error)

	metrics, err := ComputeMetrics(dbc, "310633997", "us")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.Count)
	assert.Equal(t, 5.0, metrics.AverageRating)
}
