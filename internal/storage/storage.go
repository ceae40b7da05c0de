package storage

import (
	"context"
	"time"

	"github.com/reviewscope/crawler/internal/types"
)

// ReviewStore persists crawled reviews with upsert-based deduplication.
// The natural key is (item id, author, date, content): crawling the same
// item twice inserts only what is new, and an empty insert count means
// "nothing new", not a failure.
type ReviewStore interface {
	// UpsertReviews writes a batch for one item, skipping records whose
	// natural key already exists.
	UpsertReviews(ctx context.Context, itemID string, records []types.ReviewRecord) (inserted, skipped int, err error)

	// TouchLastCrawled stamps the owning item after a crawl.
	TouchLastCrawled(ctx context.Context, itemID string, at time.Time) error

	// CrawlStatus returns the item's last crawl time and stored review
	// count.
	CrawlStatus(ctx context.Context, itemID string) (lastCrawledAt *time.Time, reviewCount int64, err error)

	// Close flushes and releases the backend.
	Close(ctx context.Context) error
}
