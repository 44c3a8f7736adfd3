package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	apitype "github.com/reviewdeck/reviewdeck/pkg/apis/reviews/v1"
	"github.com/reviewdeck/reviewdeck/pkg/db"
	"github.com/reviewdeck/reviewdeck/pkg/db/models"
	"github.com/reviewdeck/reviewdeck/pkg/db/query"
	"github.com/reviewdeck/reviewdeck/pkg/util"
)

const (
	defaultReviewLimit = 100
	maxReviewLimit     = 1000
)

var csvHeader = []string{
	"app_id", "country", "review_id", "author", "title", "text",
	"rating", "version", "date", "source", "language",
}

func reviewToAPI(row models.Review) apitype.ReviewOut {
	return apitype.ReviewOut{
		AppID:    row.AppID,
		Country:  row.Country,
		ReviewID: row.ReviewID,
		Author:   row.Author,
		Title:    row.Title,
		Text:     row.Text,
		Rating:   row.Rating,
		Version:  row.Version,
		Date:     row.Date,
		Source:   row.Source,
		Language: row.Language,
	}
}

// PrintReviews responds with the stored reviews for the app/country
// pair in the request query, most recent first, bounded by limit.
func PrintReviews(w http.ResponseWriter, req *http.Request, dbc *db.DB) {
	appID := req.URL.Query().Get("app_id")
	country := req.URL.Query().Get("country")
	if appID == "" || country == "" {
		RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": "app_id and country are required",
		})
		return
	}

	limit := defaultReviewLimit
	if raw := req.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxReviewLimit {
			RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
				"code":    http.StatusBadRequest,
				"message": fmt.Sprintf("limit must be an integer between 1 and %d", maxReviewLimit),
			})
			return
		}
		limit = parsed
	}

	rows, err := query.ListReviews(dbc, appID, country, limit)
	if err != nil {
		RespondWithJSON(http.StatusInternalServerError, w, map[string]interface{}{
			"code":    http.StatusInternalServerError,
			"message": "Could not query reviews: " + err.Error(),
		})
		return
	}

	out := make([]apitype.ReviewOut, 0, len(rows))
	for _, row := range rows {
		out = append(out, reviewToAPI(row))
	}
	RespondWithJSON(http.StatusOK, w, out)
}

// DownloadReviews streams every stored review for the app/country pair
// as a CSV or JSON attachment. With save_local=true a copy is also
// written next to the process working directory.
func DownloadReviews(w http.ResponseWriter, req *http.Request, dbc *db.DB) {
	appID := req.URL.Query().Get("app_id")
	country := req.URL.Query().Get("country")
	if appID == "" || country == "" {
		RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": "app_id and country are required",
		})
		return
	}
	format := req.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": "format must be csv or json",
		})
		return
	}
	saveLocal, _ := strconv.ParseBool(req.URL.Query().Get("save_local"))

	rows, err := query.AllReviews(dbc, appID, country)
	if err != nil {
		RespondWithJSON(http.StatusInternalServerError, w, map[string]interface{}{
			"code":    http.StatusInternalServerError,
			"message": "Could not query reviews: " + err.Error(),
		})
		return
	}

	var payload []byte
	var contentType string
	switch format {
	case "json":
		payload, err = encodeReviewsJSON(rows)
		contentType = "application/json"
	default:
		payload, err = encodeReviewsCSV(rows)
		contentType = "text/csv"
	}
	if err != nil {
		RespondWithJSON(http.StatusInternalServerError, w, map[string]interface{}{
			"code":    http.StatusInternalServerError,
			"message": "Could not encode reviews: " + err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("reviews_%s_%s.%s", appID, country, format)
	if saveLocal {
		if err := util.WriteFileAtomic(filename, payload); err != nil {
			log.WithError(err).Warn("could not save local copy of review export")
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		log.WithError(err).Error("could not write review export")
	}
}

func encodeReviewsJSON(rows []models.Review) ([]byte, error) {
	out := make([]apitype.ReviewOut, 0, len(rows))
	for _, row := range rows {
		out = append(out, reviewToAPI(row))
	}
	return json.MarshalIndent(out, "", "  ")
}

func encodeReviewsCSV(rows []models.Review) ([]byte, error) {
	var buf bytes.Buffer
	wr := csv.NewWriter(&buf)
	if err := wr.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		date := ""
		if row.Date != nil {
			date = row.Date.Format(time.RFC3339)
		}
		record := []string{
			row.AppID, row.Country, row.ReviewID, row.Author, row.Title, row.Text,
			strconv.Itoa(row.Rating), row.Version, date, row.Source, row.Language,
		}
		if err := wr.Write(record); err != nil {
			return nil, err
		}
	}
	wr.Flush()
	return buf.Bytes(), wr.Error()
}
