package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/reviewscope/crawler/internal/platform"
	"github.com/reviewscope/crawler/internal/types"
)

const (
	defaultAuthor = "Unknown"
	defaultRating = 5
)

// Reviews extracts every review record visible in a settled page.
// Content is mandatory: a node with empty or whitespace-only content is
// dropped entirely rather than emitted with an empty body.
func Reviews(d *Document, p *platform.Profile) []types.ReviewRecord {
	var records []types.ReviewRecord

	d.gq.Find(p.ReviewList).Each(func(_ int, node *goquery.Selection) {
		if rec, ok := reviewFromNode(node, p); ok {
			records = append(records, rec)
		}
	})
	return records
}

func reviewFromNode(node *goquery.Selection, p *platform.Profile) (types.ReviewRecord, bool) {
	content := strings.TrimSpace(node.Find(p.ContentSel).First().Text())
	if content == "" {
		return types.ReviewRecord{}, false
	}

	rec := types.ReviewRecord{
		Author:   defaultAuthor,
		Rating:   reviewRating(node, p),
		Content:  content,
		Images:   reviewImages(node, p),
		Platform: string(p.ID),
	}

	if author := strings.TrimSpace(node.Find(p.AuthorSel).First().Text()); author != "" {
		rec.Author = author
	}
	if date := normalizeDate(node.Find(p.DateSel).First().Text()); date != "" {
		rec.Date = &date
	}
	return rec, true
}

// reviewRating digit-filters the rating text. No digits means the
// storefront hid the stars; default to 5 ("unknown, assume satisfied",
// a known positive bias, not a signal).
func reviewRating(node *goquery.Selection, p *platform.Profile) int {
	digits := digitsOnly(node.Find(p.RatingSel).First().Text())
	if digits == "" {
		return defaultRating
	}
	rating, err := strconv.Atoi(digits)
	if err != nil {
		return defaultRating
	}
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}
	return rating
}

// normalizeDate converts the storefront's dot-separated dates
// ("24.01.15.") to dash-separated form ("24-01-15").
func normalizeDate(raw string) string {
	date := strings.ReplaceAll(strings.TrimSpace(raw), ".", "-")
	return strings.TrimSuffix(date, "-")
}

// reviewImages collects image URLs with a three-tier fallback. The
// storefront has changed its image-delivery markup without warning
// before; losing the image must never lose the review.
//
// Tier 1: structured JSON payload on an inner element whose attribute
// mentions the image-url key. Tier 2: the same payload attribute on the
// review node itself. Tier 3: plain <img> src collection.
func reviewImages(node *goquery.Selection, p *platform.Profile) []string {
	var urls []string

	if p.ImageDataAttr != "" {
		node.Find("[" + p.ImageDataAttr + "]").Each(func(_ int, inner *goquery.Selection) {
			raw, _ := inner.Attr(p.ImageDataAttr)
			if strings.Contains(raw, p.ImageURLKey) {
				urls = append(urls, payloadImageURLs(raw, p.ImageURLKey)...)
			}
		})

		if len(urls) == 0 {
			if raw, ok := node.Attr(p.ImageDataAttr); ok {
				urls = payloadImageURLs(raw, p.ImageURLKey)
			}
		}
	}

	if len(urls) == 0 && p.ReviewImages != "" {
		node.Find(p.ReviewImages).Each(func(_ int, img *goquery.Selection) {
			if src, ok := img.Attr("src"); ok {
				urls = append(urls, src)
			}
		})
	}

	return dedupeURLs(urls)
}

// payloadImageURLs parses a structured-data attribute value. Two shapes
// have been observed: an array of {key, value} entries, and a flat
// object keyed directly by the image-url key. Anything else yields
// nothing.
func payloadImageURLs(raw, urlKey string) []string {
	var entries []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal([]byte(raw), &entries); err == nil {
		var urls []string
		for _, e := range entries {
			if e.Key == urlKey && e.Value != "" {
				urls = append(urls, e.Value)
			}
		}
		return urls
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		switch v := obj[urlKey].(type) {
		case string:
			if v != "" {
				return []string{v}
			}
		case []any:
			var urls []string
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					urls = append(urls, s)
				}
			}
			return urls
		}
	}
	return nil
}

// dedupeURLs drops empty strings and duplicates, preserving order.
func dedupeURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
