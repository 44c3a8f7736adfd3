package reviewloader

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewEntry(id string, rating interface{}, title, text, author, version, updated string) string {
	return fmt.Sprintf(`{
		"id": {"label": %q},
		"title": {"label": %q},
		"content": {"label": %q, "attributes": {"type": "text"}},
		"im:rating": {"label": %q},
		"author": {"name": {"label": %q}},
		"im:version": {"label": %q},
		"updated": {"label": %q}
	}`, id, title, text, fmt.Sprintf("%v", rating), author, version, updated)
}

func metadataEntry() string {
	return `{"id": {"label": "https://itunes.apple.com/us/app/id310633997"}, "im:name": {"label": "Some App"}}`
}

func feedJSON(entries ...string) string {
	if len(entries) == 0 {
		return `{"feed": {"author": {"name": {"label": "iTunes Store"}}}}`
	}
	return fmt.Sprintf(`{"feed": {"entry": [%s]}}`, strings.Join(entries, ","))
}

func newTestCollector(handler http.Handler) (*RSSCollector, *httptest.Server) {
	srv := httptest.NewServer(handler)
	collector := NewRSSCollector()
	collector.baseURL = srv.URL
	return collector, srv
}

func TestFetchParsesEntries(t *testing.T) {
	collector, srv := newTestCollector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedJSON(
			metadataEntry(),
			reviewEntry("r1", 5, "Love it", "Great app", "alice", "2.1.0", "2024-05-01T07:00:00Z"),
			reviewEntry("r2", 1, "Broken", "Crashes on login", "bob", "2.1.0", "not-a-date"),
		))
	}))
	defer srv.Close()

	records, errs := collector.Fetch("310633997", "us", 1)
	require.Empty(t, errs)
	require.Len(t, records, 2, "metadata entry should be skipped")

	assert.Equal(t, "r1", records[0].ReviewID)
	assert.Equal(t, "alice", records[0].Author)
	assert.Equal(t, "Love it", records[0].Title)
	assert.Equal(t, "Great app", records[0].Text)
	assert.Equal(t, 5, records[0].Rating)
	assert.Equal(t, "2.1.0", records[0].Version)
	assert.Equal(t, "rss", records[0].Source)
	require.NotNil(t, records[0].Date)
	assert.Equal(t, "2024-05-01T07:00:00Z", records[0].Date.UTC().Format("2006-01-02T15:04:05Z"))

	// Unparseable dates degrade to nil rather than failing the entry.
	assert.Nil(t, records[1].Date)
}

func TestFetchMalformedRatingDefaultsToZero(t *testing.T) {
	collector, srv := newTestCollector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedJSON(reviewEntry("r1", "five", "t", "x", "a", "1.0", "")))
	}))
	defer srv.Close()

	records, errs := collector.Fetch("1", "us", 1)
	require.Empty(t, errs)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].Rating)
}

func TestFetchPageWithoutEntries(t *testing.T) {
	collector, srv := newTestCollector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedJSON())
	}))
	defer srv.Close()

	records, errs := collector.Fetch("310633997", "us", 3)
	assert.Empty(t, errs)
	assert.Empty(t, records)
}

func TestFetchSkipsFailedPages(t *testing.T) {
	collector, srv := newTestCollector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "page=2") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, feedJSON(reviewEntry("r-"+r.URL.Path, 4, "ok", "fine", "a", "1.0", "")))
	}))
	defer srv.Close()

	records, errs := collector.Fetch("310633997", "us", 3)
	assert.Len(t, errs, 1, "the failed page is reported but not fatal")
	assert.Len(t, records, 2, "remaining pages still contribute records")
}

func TestFetchMalformedJSONFailsPage(t *testing.T) {
	collector, srv := newTestCollector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	records, errs := collector.Fetch("310633997", "us", 1)
	assert.Len(t, errs, 1)
	assert.Empty(t, records)
}
