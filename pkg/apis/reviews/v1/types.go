package v1

import "time"

// CollectRequest is the body of a POST /api/collect call. Only AppID
// is required; the other fields default when absent.
type CollectRequest struct {
	// AppID is the numeric app store identifier, e.g. "310633997".
	AppID string `json:"app_id"`

	// Country is the 2-letter storefront country code. Defaults to "us".
	Country string `json:"country"`

	// HowMany bounds the number of collected reviews considered for
	// insertion (1-1000). Defaults to 100.
	HowMany int `json:"how_many"`

	// Source selects the collection source: auto|rss. Defaults to "auto".
	Source string `json:"source"`
}

// CollectResponse reports the outcome of a collection run. Inserted and
// NewRecords are computed independently (rows created vs. pre/post count
// diff) and agree on any non-concurrent call.
type CollectResponse struct {
	Status     string `json:"status"`
	Inserted   int    `json:"inserted"`
	NewRecords int    `json:"new_records"`
}

// ReviewOut is a stored review as returned by the listing and download
// endpoints.
type ReviewOut struct {
	AppID    string     `json:"app_id"`
	Country  string     `json:"country"`
	ReviewID string     `json:"review_id"`
	Author   string     `json:"author"`
	Title    string     `json:"title"`
	Text     string     `json:"text"`
	Rating   int        `json:"rating"`
	Version  string     `json:"version"`
	Date     *time.Time `json:"date"`
	Source   string     `json:"source"`
	Language string     `json:"language"`
}

// MetricsOut is the per-request aggregate over stored reviews for one
// app/country pair. Distribution maps rating value (stringified) to the
// percentage of rated reviews carrying that rating.
type MetricsOut struct {
	AppID         string             `json:"app_id"`
	Country       string             `json:"country"`
	Count         int                `json:"count"`
	AverageRating float64            `json:"average_rating"`
	Distribution  map[string]float64 `json:"distribution"`
}

// InsightsOut is the qualitative counterpart to MetricsOut: sentiment
// mix, keywords mined from negative reviews, and generated
// recommendations.
type InsightsOut struct {
	AppID               string             `json:"app_id"`
	Country             string             `json:"country"`
	SentimentCounts     map[string]int     `json:"sentiment_counts"`
	SentimentPercent    map[string]float64 `json:"sentiment_percent"`
	TopNegativeKeywords []string           `json:"top_negative_keywords"`
	Recommendations     []string           `json:"recommendations"`
}
