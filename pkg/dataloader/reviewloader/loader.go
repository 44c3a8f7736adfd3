package reviewloader

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reviewdeck/reviewdeck/pkg/db"
	"github.com/reviewdeck/reviewdeck/pkg/db/models"
	"github.com/reviewdeck/reviewdeck/pkg/db/query"
	"github.com/reviewdeck/reviewdeck/pkg/util"
)

// defaultPageBudget is how many feed pages a single collection run
// requests; the remote service fixes the page size.
const defaultPageBudget = 10

// ReviewLoader collects reviews from a feed and inserts the new ones
// for a single app/country pair. It implements dataloader.DataLoader;
// fetch failures degrade the candidate pool and are reported via
// Errors() without ever failing a run.
type ReviewLoader struct {
	dbc       *db.DB
	collector *RSSCollector
	appID     string
	country   string
	howMany   int
	source    string
	errors    []error

	inserted int
	netNew   int
}

func New(dbc *db.DB, appID, country string, howMany int, source string) *ReviewLoader {
	return NewWithCollector(dbc, NewRSSCollector(), appID, country, howMany, source)
}

// NewWithCollector is New with an explicit collector, for callers that
// point at a non-default feed host.
func NewWithCollector(dbc *db.DB, collector *RSSCollector, appID, country string, howMany int, source string) *ReviewLoader {
	return &ReviewLoader{
		dbc:       dbc,
		collector: collector,
		appID:     appID,
		country:   country,
		howMany:   howMany,
		source:    source,
	}
}

func (l *ReviewLoader) Name() string {
	return "reviews"
}

func (l *ReviewLoader) Errors() []error {
	return l.errors
}

func (l *ReviewLoader) Load() {
	inserted, netNew, err := l.Collect()
	if err != nil {
		l.errors = append(l.errors, err)
		return
	}
	log.WithFields(log.Fields{
		"app":     l.appID,
		"country": l.country,
	}).Infof("collected reviews: %d inserted, %d net new", inserted, netNew)
}

// Results returns the counts from the most recent Load or Collect call.
func (l *ReviewLoader) Results() (inserted, netNew int) {
	return l.inserted, l.netNew
}

// Collect fetches a candidate pool, samples up to howMany records from
// it and inserts those not already stored. It returns the number of
// rows created and the difference between the post- and pre-call stored
// counts; the two agree on any non-concurrent call and are both
// reported as a sanity check. An error is returned only for storage
// failures; collection failures are best-effort and reported via
// Errors().
func (l *ReviewLoader) Collect() (int, int, error) {
	l.inserted, l.netNew = 0, 0

	pool := l.collectPool()
	if len(pool) == 0 {
		return 0, 0, nil
	}

	// Shuffling avoids biasing the sample toward the feed's most recent
	// pages when the pool exceeds the requested amount.
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	sample := pool
	if l.howMany > 0 && len(sample) > l.howMany {
		sample = sample[:l.howMany]
	}

	before, err := query.ReviewCount(l.dbc, l.appID, l.country)
	if err != nil {
		return 0, 0, errors.Wrap(err, "could not count stored reviews")
	}

	inserted := 0
	err = l.dbc.DB.Transaction(func(tx *gorm.DB) error {
		for _, rec := range sample {
			// Entries without a usable rating are metadata or junk.
			if rec.Rating <= 0 {
				continue
			}

			row := models.Review{
				AppID:    l.appID,
				Country:  l.country,
				ReviewID: rec.ReviewID,
				Author:   util.CleanText(rec.Author),
				Title:    util.CleanText(rec.Title),
				Text:     util.CleanText(rec.Text),
				Rating:   rec.Rating,
				Version:  rec.Version,
				Date:     rec.Date,
				Source:   rec.Source,
				Language: rec.Language,
			}
			if row.ReviewID == "" {
				row.ReviewID = fmt.Sprintf("rss-%d", rand.Uint32())
			}

			// Insert-if-not-exists on the natural key; the unique index
			// is the arbiter, so concurrent collects cannot double-insert.
			res := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "app_id"},
					{Name: "country"},
					{Name: "review_id"},
				},
				DoNothing: true,
			}).Create(&row)
			if res.Error != nil {
				return res.Error
			}
			inserted += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "could not insert reviews")
	}

	after, err := query.ReviewCount(l.dbc, l.appID, l.country)
	if err != nil {
		return 0, 0, errors.Wrap(err, "could not count stored reviews")
	}

	l.inserted = inserted
	l.netNew = int(after - before)
	return l.inserted, l.netNew, nil
}

func (l *ReviewLoader) collectPool() []Record {
	switch l.source {
	case "", "auto", "rss":
	default:
		// Additional sources (web scraper, store connect API) are a
		// named extension point; anything unknown degrades to the feed.
		l.errors = append(l.errors, fmt.Errorf("unknown review source %q, falling back to rss", l.source))
	}

	records, errs := l.collector.Fetch(l.appID, l.country, defaultPageBudget)
	l.errors = append(l.errors, errs...)
	return records
}
