// Package reviewscope provides a small client for the reviewscope crawl
// API.
//
// Example usage:
//
//	client := reviewscope.NewClient("http://localhost:3001")
//
//	md, err := client.ExtractMetadata(ctx, productURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reviews, err := client.CrawlReviews(ctx, reviewscope.CrawlRequest{
//	    URL:      productURL,
//	    MaxPages: 30,
//	})
package reviewscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProductMetadata mirrors the /extract/metadata response.
type ProductMetadata struct {
	Platform string  `json:"platform"`
	Name     *string `json:"product_name"`
	ImageURL *string `json:"product_image"`
	Price    *int    `json:"price"`
}

// ReviewRecord mirrors one element of the /crawl/reviews response.
type ReviewRecord struct {
	Author   string   `json:"author"`
	Rating   int      `json:"rating"`
	Content  string   `json:"content"`
	Date     *string  `json:"date"`
	Images   []string `json:"images"`
	Platform string   `json:"platform"`
}

// CrawlRequest describes one crawl call.
type CrawlRequest struct {
	URL      string `json:"url"`
	Platform string `json:"platform,omitempty"`
	ItemID   string `json:"itemId,omitempty"`
	MaxPages int    `json:"maxPages,omitempty"`
}

// CrawlItemResult mirrors the /items/{id}/crawl response.
type CrawlItemResult struct {
	Success  bool `json:"success"`
	Crawled  int  `json:"crawled"`
	Inserted int  `json:"inserted"`
	Skipped  int  `json:"skipped"`
}

// CrawlStatus mirrors the crawl-status response.
type CrawlStatus struct {
	LastCrawledAt *time.Time `json:"last_crawled_at"`
	ReviewCount   int64      `json:"review_count"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Client talks to one reviewscope server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Review crawls can
// run for minutes; the replacement's timeout must allow that.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 35 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks the server.
func (c *Client) Health(ctx context.Context) error {
	var resp map[string]string
	return c.do(ctx, http.MethodGet, "/health", nil, &resp)
}

// ExtractMetadata extracts product metadata from a product URL.
func (c *Client) ExtractMetadata(ctx context.Context, url string) (*ProductMetadata, error) {
	var md ProductMetadata
	err := c.do(ctx, http.MethodPost, "/extract/metadata", map[string]string{"url": url}, &md)
	if err != nil {
		return nil, err
	}
	return &md, nil
}

// CrawlReviews crawls every review the server can reach within the page
// budget and returns the raw records.
func (c *Client) CrawlReviews(ctx context.Context, req CrawlRequest) ([]ReviewRecord, error) {
	var records []ReviewRecord
	if err := c.do(ctx, http.MethodPost, "/crawl/reviews", req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CrawlItem crawls and persists reviews for a registered item. Only
// available when the server runs with storage configured.
func (c *Client) CrawlItem(ctx context.Context, itemID string, req CrawlRequest) (*CrawlItemResult, error) {
	var result CrawlItemResult
	path := fmt.Sprintf("/items/%s/crawl", itemID)
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ItemCrawlStatus returns the item's last crawl time and stored review
// count.
func (c *Client) ItemCrawlStatus(ctx context.Context, itemID string) (*CrawlStatus, error) {
	var status CrawlStatus
	path := fmt.Sprintf("/items/%s/crawl", itemID)
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
