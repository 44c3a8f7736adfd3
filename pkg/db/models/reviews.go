package models

import (
	"time"
)

// Review is one customer review pulled from a store feed. Rows are
// insert-only: duplicates are skipped at ingestion time and nothing in
// the system updates or deletes a stored review.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	// AppID, Country and ReviewID form the natural key; no two rows may
	// share all three.
	AppID    string `json:"app_id" gorm:"not null;uniqueIndex:idx_reviews_app_country_review"`
	Country  string `json:"country" gorm:"not null;uniqueIndex:idx_reviews_app_country_review"`
	ReviewID string `json:"review_id" gorm:"not null;uniqueIndex:idx_reviews_app_country_review"`

	Author  string `json:"author"`
	Title   string `json:"title"`
	Text    string `json:"text"`
	Rating  int    `json:"rating" gorm:"not null"`
	Version string `json:"version"`

	// Date is the feed's publication timestamp; nil when the feed value
	// was absent or unparseable.
	Date *time.Time `json:"date" gorm:"index"`

	Source   string `json:"source"`
	Language string `json:"language"`
}
