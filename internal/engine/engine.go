package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/reviewscope/crawler/internal/config"
	"github.com/reviewscope/crawler/internal/extract"
	"github.com/reviewscope/crawler/internal/fetcher"
	"github.com/reviewscope/crawler/internal/observability"
	"github.com/reviewscope/crawler/internal/paginator"
	"github.com/reviewscope/crawler/internal/platform"
	"github.com/reviewscope/crawler/internal/session"
	"github.com/reviewscope/crawler/internal/types"
)

// Engine ties the session, classifier, extractor and paginator together
// behind the two operations the route layer calls: metadata extraction
// and review crawling. One engine owns one browser session; crawls are
// strictly sequential within a page and never share pages.
type Engine struct {
	cfg     *config.Config
	session *session.Session
	static  *fetcher.StaticFetcher
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates an engine. static may be nil to disable the fast path.
func New(cfg *config.Config, sess *session.Session, static *fetcher.StaticFetcher, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		session: sess,
		static:  static,
		metrics: metrics,
		logger:  logger.With("component", "engine"),
	}
}

// ExtractMetadata classifies the URL, renders the product page, and
// extracts name/image/price. Missing fields come back nil; only an
// unsupported platform or a navigation failure is an error.
func (e *Engine) ExtractMetadata(ctx context.Context, rawURL string) (*types.ProductMetadata, error) {
	target, err := platform.Resolve(rawURL)
	if err != nil {
		return nil, err
	}
	profile, _ := platform.Lookup(target.Platform)
	if !profile.Metadata {
		return nil, types.ErrUnsupportedPlatform
	}
	e.metrics.MetadataTotal.Add(1)

	// Fast path: one static GET. Falls through to the browser when the
	// static markup yields neither a name nor an image.
	if e.static != nil && e.cfg.Fetcher.Enabled {
		if md := e.staticMetadata(ctx, target, profile); md != nil {
			e.metrics.MetadataStatic.Add(1)
			return md, nil
		}
	}

	e.metrics.MetadataBrowser.Add(1)
	return e.browserMetadata(ctx, target, profile)
}

func (e *Engine) staticMetadata(ctx context.Context, target *platform.Target, profile *platform.Profile) *types.ProductMetadata {
	html, err := e.static.FetchHTML(ctx, target.CanonicalURL)
	if err != nil {
		e.logger.Debug("static fetch failed, falling back to browser",
			"url", target.CanonicalURL, "error", err)
		return nil
	}
	doc, err := extract.ParseDocument(html)
	if err != nil {
		return nil
	}
	md := extract.StaticProductMetadata(doc, profile)
	if md.Name == nil && md.ImageURL == nil {
		// Static markup was a JS shell; needs a real render.
		return nil
	}
	e.logger.Debug("metadata extracted via static fetch", "url", target.CanonicalURL)
	return md
}

func (e *Engine) browserMetadata(ctx context.Context, target *platform.Target, profile *platform.Profile) (*types.ProductMetadata, error) {
	page, err := e.session.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	timed := page.Context(ctx).Timeout(e.cfg.Crawl.NavigationTimeout)
	if err := timed.Navigate(target.CanonicalURL); err != nil {
		return nil, &types.NavigationError{URL: target.CanonicalURL, Err: err}
	}
	if err := timed.WaitLoad(); err != nil {
		return nil, &types.NavigationError{URL: target.CanonicalURL, Err: err}
	}
	if err := timed.WaitStable(500 * time.Millisecond); err != nil {
		e.logger.Warn("page stability timeout, extracting anyway",
			"url", target.CanonicalURL, "error", err)
	}

	html, err := timed.HTML()
	if err != nil {
		return nil, &types.NavigationError{URL: target.CanonicalURL, Err: err}
	}
	doc, err := extract.ParseDocument(html)
	if err != nil {
		return nil, &types.ExtractError{URL: target.CanonicalURL, Err: err}
	}
	return extract.ProductMetadata(doc, profile), nil
}

// CrawlReviews runs the full pagination state machine against the
// product's review section and returns every record accumulated. The
// caller supplies the platform id it stored at registration time; the
// engine re-derives it from the URL and trusts its own classification.
// A platform without review support yields an empty result, matching
// the "nothing new" contract.
func (e *Engine) CrawlReviews(ctx context.Context, rawURL, platformID, itemID string, maxPages int) ([]types.ReviewRecord, error) {
	target, err := platform.Resolve(rawURL)
	if err != nil {
		return nil, err
	}
	if platformID != "" && platformID != string(target.Platform) {
		e.logger.Warn("caller platform disagrees with classifier",
			"caller", platformID, "classified", string(target.Platform), "url", rawURL)
	}

	profile, _ := platform.Lookup(target.Platform)
	if !profile.Reviews {
		e.logger.Warn("review crawling not supported for platform",
			"platform", string(target.Platform))
		return []types.ReviewRecord{}, nil
	}

	page, err := e.session.NewPage()
	if err != nil {
		return nil, err
	}
	drv := paginator.NewRodDriver(page, e.cfg.Crawl.NavigationTimeout, e.logger)
	defer drv.Close()

	e.logger.Info("review crawl starting",
		"url", target.CanonicalURL, "item_id", itemID, "max_pages", maxPages)
	start := time.Now()

	e.metrics.CrawlsTotal.Add(1)
	pag := paginator.New(profile, &e.cfg.Crawl, e.logger)
	records, err := pag.Run(ctx, drv, target.CanonicalURL, maxPages)
	if err != nil {
		e.metrics.CrawlsFailed.Add(1)
	}
	e.metrics.ReviewsExtracted.Add(int64(len(records)))

	e.logger.Info("review crawl done",
		"reviews", len(records), "elapsed", time.Since(start), "error", err)
	return records, err
}

// Close releases the browser session and the static fetcher.
func (e *Engine) Close() error {
	if e.static != nil {
		_ = e.static.Close()
	}
	return e.session.Close()
}
