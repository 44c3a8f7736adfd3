package reviewloader

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	appleStoreBaseURL = "https://itunes.apple.com"

	// fetchTimeout bounds a single page request so a stalled feed
	// endpoint cannot block a collection run indefinitely.
	fetchTimeout = 15 * time.Second
)

// Record is one review as parsed out of a feed page, before any
// ingestion filtering or persistence.
type Record struct {
	ReviewID string
	Author   string
	Title    string
	Text     string
	Rating   int
	Version  string
	Date     *time.Time
	Source   string
	Language string
}

// pageResult carries the outcome of fetching a single feed page. A
// failed page contributes zero records; the failure stays visible here
// for logging and error accounting even though it never propagates.
type pageResult struct {
	records []Record
	failed  bool
}

// RSSCollector pulls customer reviews from the store's paginated RSS
// JSON feed.
type RSSCollector struct {
	client  *resty.Client
	baseURL string
}

func NewRSSCollector() *RSSCollector {
	return NewRSSCollectorForURL(appleStoreBaseURL)
}

// NewRSSCollectorForURL targets an alternate feed host, for use behind
// a caching proxy or against a local stand-in.
func NewRSSCollectorForURL(baseURL string) *RSSCollector {
	return &RSSCollector{
		client:  resty.New().SetTimeout(fetchTimeout),
		baseURL: baseURL,
	}
}

// Fetch walks up to maxPages sequential feed pages for the given
// app/country and returns every parsed review record. Failed pages are
// skipped, never retried, and reported as errors alongside the records.
func (c *RSSCollector) Fetch(appID, country string, maxPages int) ([]Record, []error) {
	var records []Record
	var errs []error
	for page := 1; page <= maxPages; page++ {
		result := c.fetchPage(appID, country, page)
		if result.failed {
			errs = append(errs, fmt.Errorf("review feed page %d for app %s/%s failed", page, appID, country))
			continue
		}
		records = append(records, result.records...)
	}
	return records, errs
}

func (c *RSSCollector) fetchPage(appID, country string, page int) pageResult {
	url := fmt.Sprintf("%s/%s/rss/customerreviews/page=%d/id=%s/sortby=mostrecent/json",
		c.baseURL, country, page, appID)

	resp, err := c.client.R().Get(url)
	if err != nil {
		log.WithError(err).Warnf("failed to fetch review feed page %d for app %s/%s", page, appID, country)
		return pageResult{failed: true}
	}
	if resp.StatusCode() != http.StatusOK {
		log.Warnf("review feed returned non-200 for %s: %d", url, resp.StatusCode())
		return pageResult{failed: true}
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		log.Warnf("review feed page %d for app %s/%s contained malformed JSON", page, appID, country)
		return pageResult{failed: true}
	}

	// A page without entries is a valid (empty) page, often seen past
	// the end of the feed.
	entries := gjson.GetBytes(body, "feed.entry")
	if !entries.Exists() {
		return pageResult{}
	}

	var records []Record
	for _, entry := range entries.Array() {
		// The first entry can be app metadata, skip non-reviews.
		if !entry.Get("im:rating").Exists() {
			continue
		}

		rec := Record{
			ReviewID: entry.Get("id.label").String(),
			Author:   entry.Get("author.name.label").String(),
			Title:    entry.Get("title.label").String(),
			Text:     entry.Get("content.label").String(),
			Rating:   int(entry.Get("im:rating.label").Int()),
			Version:  entry.Get("im:version.label").String(),
			Source:   "rss",
		}

		if label := entry.Get("updated.label").String(); label != "" {
			// RFC 3339 covers the feed's timestamps, including the
			// trailing-Z UTC form. Unparseable dates degrade to nil.
			if ts, err := time.Parse(time.RFC3339, label); err == nil {
				rec.Date = &ts
			}
		}

		records = append(records, rec)
	}

	return pageResult{records: records}
}
