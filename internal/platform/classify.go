package platform

import (
	"strings"

	"github.com/reviewscope/crawler/internal/types"
)

// Target is a classified, canonicalized crawl target. Derived, never
// persisted.
type Target struct {
	RawURL       string
	Platform     ID
	CanonicalURL string
}

// Classify matches a URL against each registered platform's domain
// patterns, first match wins. It is total: an unrecognized URL yields
// ok=false, never a panic or error.
func Classify(rawURL string) (ID, bool) {
	lower := strings.ToLower(rawURL)
	for _, p := range registry {
		for _, domain := range p.Domains {
			if strings.Contains(lower, domain) {
				return p.ID, true
			}
		}
	}
	return "", false
}

// Normalize strips the query string from product URLs whose path shape
// makes that safe, and returns anything else unchanged. Idempotent.
func Normalize(rawURL string) string {
	id, ok := Classify(rawURL)
	if !ok {
		return rawURL
	}
	p, _ := Lookup(id)
	if p.ProductPathSegment == "" || !strings.Contains(rawURL, p.ProductPathSegment) {
		return rawURL
	}
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// Resolve classifies and normalizes a URL into a Target. Unrecognized
// URLs fail with ErrUnsupportedPlatform; nothing downstream ever sees a
// silent "unknown" platform.
func Resolve(rawURL string) (*Target, error) {
	id, ok := Classify(rawURL)
	if !ok {
		return nil, types.ErrUnsupportedPlatform
	}
	return &Target{
		RawURL:       rawURL,
		Platform:     id,
		CanonicalURL: Normalize(rawURL),
	}, nil
}
