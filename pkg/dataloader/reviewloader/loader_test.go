package reviewloader

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/reviewdeck/reviewdeck/pkg/db"
	"github.com/reviewdeck/reviewdeck/pkg/db/models"
	"github.com/reviewdeck/reviewdeck/pkg/db/query"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	dbc, err := db.New(dsn, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, dbc.UpdateSchema())
	return dbc
}

func newTestLoader(t *testing.T, dbc *db.DB, howMany int, source string, feed http.Handler) (*ReviewLoader, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(feed)
	loader := New(dbc, "310633997", "us", howMany, source)
	loader.collector.baseURL = srv.URL
	return loader, srv
}

// singlePageFeed serves entries on page 1 and an empty feed on every
// other page.
func singlePageFeed(entries ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "page=1/") {
			fmt.Fprint(w, feedJSON(entries...))
			return
		}
		fmt.Fprint(w, feedJSON())
	})
}

func TestCollectInsertsAndDeduplicates(t *testing.T) {
	dbc := newTestDB(t)
	loader, srv := newTestLoader(t, dbc, 100, "auto", singlePageFeed(
		reviewEntry("r1", 5, "Love it", "Great app", "alice", "2.1.0", "2024-05-01T07:00:00Z"),
		reviewEntry("r2", 1, "Broken", "Crashes on login", "bob", "2.1.0", "2024-05-02T07:00:00Z"),
		reviewEntry("r3", 3, "Meh", "It is fine", "carol", "2.0.0", ""),
		reviewEntry("r1", 5, "Love it", "Great app", "alice", "2.1.0", "2024-05-01T07:00:00Z"),
	))
	defer srv.Close()

	inserted, netNew, err := loader.Collect()
	require.NoError(t, err)
	assert.Equal(t, 3, inserted, "the duplicated review id inserts once")
	assert.Equal(t, inserted, netNew)

	count, err := query.ReviewCount(dbc, "310633997", "us")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// An unchanged feed yields nothing new on the second call.
	inserted, netNew, err = loader.Collect()
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Zero(t, netNew)
}

func TestCollectSkipsUnratedRecords(t *testing.T) {
	dbc := newTestDB(t)
	loader, srv := newTestLoader(t, dbc, 5, "auto", singlePageFeed(
		reviewEntry("r1", 4, "Good", "Solid", "a", "1.0", ""),
		reviewEntry("r2", 0, "Phantom", "No rating came through", "b", "1.0", ""),
		reviewEntry("r3", "junk", "Bad value", "Malformed rating", "c", "1.0", ""),
	))
	defer srv.Close()

	inserted, netNew, err := loader.Collect()
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, netNew)
}

func TestCollectEmptyFeed(t *testing.T) {
	dbc := newTestDB(t)
	loader, srv := newTestLoader(t, dbc, 100, "auto", singlePageFeed())
	defer srv.Close()

	inserted, netNew, err := loader.Collect()
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Zero(t, netNew)
}

func TestCollectSampleSmallerThanPool(t *testing.T) {
	entries := make([]string, 0, 6)
	for i := 1; i <= 6; i++ {
		entries = append(entries, reviewEntry(fmt.Sprintf("r%d", i), 5, "t", "x", "a", "1.0", ""))
	}

	dbc := newTestDB(t)
	loader, srv := newTestLoader(t, dbc, 2, "auto", singlePageFeed(entries...))
	defer srv.Close()

	inserted, netNew, err := loader.Collect()
	require.NoError(t, err)
	assert.Equal(t, 2, inserted, "the sample is bounded by how_many")
	assert.Equal(t, 2, netNew)
}

func TestCollectPoolSmallerThanSample(t *testing.T) {
	dbc := newTestDB(t)
	loader, srv := newTestLoader(t, dbc, 5, "auto", singlePageFeed(
		reviewEntry("r1", 5, "t", "x", "a", "1.0", ""),
		reviewEntry("r2", 4, "t", "x", "a", "1.0", ""),
		reviewEntry("r3", 3, "t", "x", "a", "1.0", ""),
	))
	defer srv.Close()

	inserted, _, err := loader.Collect()
	require.NoError(t, err)
	assert.Equal(t, 3, inserted, "asking for 5 from a pool of 3 inserts exactly 3")
}

func TestCollectSynthesizesMissingReviewID(t *testing.T) {
	dbc := newTestDB(t)
	loader, srv := newTestLoader(t, dbc, 5, "auto", singlePageFeed(
		reviewEntry("", 2, "No id", "Feed gave no identifier", "a", "1.0", ""),
	))
	defer srv.Close()

	inserted, _, err := loader.Collect()
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	var row models.Review
	require.NoError(t, dbc.DB.First(&row).Error)
	assert.True(t, strings.HasPrefix(row.ReviewID, "rss-"), "synthetic id %q should carry the rss- prefix", row.ReviewID)
}

func TestCollectNormalizesTextFields(t *testing.T) {
	dbc := newTestDB(t)
	loader, srv := newTestLoader(t, dbc, 5, "auto", singlePageFeed(
		reviewEntry("r1", 2, "bad  app", "it ​ keeps   crashing", "some user", "1.0", ""),
	))
	defer srv.Close()

	_, _, err := loader.Collect()
	require.NoError(t, err)

	var row models.Review
	require.NoError(t, dbc.DB.First(&row).Error)
	assert.Equal(t, "bad app", row.Title)
	assert.Equal(t, "it keeps crashing", row.Text)
	assert.Equal(t, "some user", row.Author)
}

func TestCollectUnknownSourceFallsBackToRSS(t *testing.T) {
	dbc := newTestDB(t)
	loader, srv := newTestLoader(t, dbc, 5, "webscraper", singlePageFeed(
		reviewEntry("r1", 4, "t", "x", "a", "1.0", ""),
	))
	defer srv.Close()

	inserted, _, err := loader.Collect()
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Len(t, loader.Errors(), 1, "the unknown source is recorded, not surfaced")
}

func TestLoaderRoundTripPreservesFields(t *testing.T) {
	dbc := newTestDB(t)
	loader, srv := newTestLoader(t, dbc, 5, "auto", singlePageFeed(
		reviewEntry("round-trip", 4, "Decent", "Mostly works", "dave", "3.2.1", "2024-06-01T10:30:00Z"),
	))
	defer srv.Close()

	_, _, err := loader.Collect()
	require.NoError(t, err)

	rows, err := query.ListReviews(dbc, "310633997", "us", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "round-trip", row.ReviewID)
	assert.Equal(t, "dave", row.Author)
	assert.Equal(t, "Decent", row.Title)
	assert.Equal(t, "Mostly works", row.Text)
	assert.Equal(t, 4, row.Rating)
	assert.Equal(t, "3.2.1", row.Version)
	assert.Equal(t, "rss", row.Source)
	require.NotNil(t, row.Date)
}
