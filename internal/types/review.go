package types

import "fmt"

// ReviewRecord is a single customer review extracted from a settled
// review-list page. The engine emits records; persistence and cross-run
// deduplication belong to the caller.
type ReviewRecord struct {
	// Author is the reviewer's display name. Defaults to "Unknown" when
	// the storefront hides or omits it.
	Author string `json:"author"`

	// Rating is the star rating, 1-5. Defaults to 5 when the rating text
	// carries no digits; callers should treat that default as a known
	// source of positive bias.
	Rating int `json:"rating"`

	// Content is the free-text review body. A node with no content is
	// never emitted as a record.
	Content string `json:"content"`

	// Date is the normalized review date (dash-separated), nil when the
	// storefront shows none.
	Date *string `json:"date"`

	// Images are deduplicated image URLs attached to the review. Never
	// nil; empty when the review has no photos.
	Images []string `json:"images"`

	// Platform is the registry identifier of the source storefront.
	Platform string `json:"platform"`
}

// DedupKey returns the natural key used for upsert-based deduplication
// across repeated crawls of the same item: (author, date, content),
// scoped by the caller to the owning item.
func (r *ReviewRecord) DedupKey() string {
	date := ""
	if r.Date != nil {
		date = *r.Date
	}
	return fmt.Sprintf("%s\x1f%s\x1f%s", r.Author, date, r.Content)
}

// ProductMetadata holds the fields extracted from a product page. The
// three extracted fields are independently optional: a missing title
// never blocks image or price extraction.
type ProductMetadata struct {
	Platform string  `json:"platform"`
	Name     *string `json:"product_name"`
	ImageURL *string `json:"product_image"`
	Price    *int    `json:"price"`
}

// CrawlResult summarizes a crawl-and-persist run for the status endpoint.
type CrawlResult struct {
	Success  bool `json:"success"`
	Crawled  int  `json:"crawled"`
	Inserted int  `json:"inserted"`
	Skipped  int  `json:"skipped"`
}
