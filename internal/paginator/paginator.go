package paginator

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/reviewscope/crawler/internal/config"
	"github.com/reviewscope/crawler/internal/extract"
	"github.com/reviewscope/crawler/internal/platform"
	"github.com/reviewscope/crawler/internal/types"
)

// Paginator walks a storefront's review pagination widget and
// accumulates review records. The widget shows page numbers in blocks
// (ten on Naver); moving past a block needs a distinct "next" control.
//
// The walk is an explicit state machine:
//
//	Init -> Navigated -> Sorted -> ScanningPage(n) -> AdvancingBlock -> Done
//
// with ScanningPage/AdvancingBlock cycling until the page budget is
// spent, the widget runs out of pages, or the context is cancelled.
// Per-page extraction failures are logged and skipped; only the initial
// navigation can fail the run.
type Paginator struct {
	profile *platform.Profile
	cfg     *config.CrawlConfig
	logger  *slog.Logger
}

// New creates a paginator for one platform profile.
func New(profile *platform.Profile, cfg *config.CrawlConfig, logger *slog.Logger) *Paginator {
	return &Paginator{
		profile: profile,
		cfg:     cfg,
		logger:  logger.With("component", "paginator", "platform", string(profile.ID)),
	}
}

// cursor tracks progress through the pagination widget.
type cursor struct {
	next    int // next page number to look for
	block   int // zero-based block index
	visited int // pages scanned so far, bounded by the budget
}

// Run drives the full crawl on an already-open page. It returns
// everything accumulated up to the stop condition; when the context is
// cancelled mid-run the partial result is returned rather than thrown
// away.
func (p *Paginator) Run(ctx context.Context, drv PageDriver, productURL string, maxPages int) ([]types.ReviewRecord, error) {
	records := []types.ReviewRecord{}
	if maxPages <= 0 {
		maxPages = p.cfg.MaxPages
	}

	// Init -> Navigated
	url := productURL
	if p.profile.ReviewAnchor != "" && !strings.Contains(url, p.profile.ReviewAnchor) {
		url += p.profile.ReviewAnchor
	}
	if err := drv.Navigate(ctx, url); err != nil {
		return records, err
	}
	drv.Settle(ctx, p.cfg.SettleDelay)

	// Navigated -> Sorted. Both controls are optional: an absent review
	// tab or sort button means we crawl whatever order the site gives.
	if drv.ClickIfPresent(p.profile.ReviewTab) {
		drv.Settle(ctx, p.cfg.SettleDelay/2)
	}
	if drv.ClickByLabel(p.profile.SortControl, p.profile.SortLabel) {
		p.logger.Debug("sorted by newest")
		drv.Settle(ctx, p.cfg.SortDelay)
	}

	cur := cursor{next: 1}
	for {
		done := p.scanBlock(ctx, drv, &cur, maxPages, &records)
		if done {
			break
		}

		// AdvancingBlock: a missing or hidden next control ends the
		// crawl.
		if !drv.ClickNextBlock(p.profile.NextBlockLabel) {
			p.logger.Debug("no more page blocks", "pages_visited", cur.visited)
			break
		}
		cur.block++
		drv.Settle(ctx, p.cfg.BlockDelay)
	}

	p.logger.Info("crawl finished",
		"pages_visited", cur.visited,
		"reviews", len(records),
	)
	return records, nil
}

// scanBlock runs ScanningPage over one block of page numbers. It
// reports true when the crawl is finished (budget spent, end of pages,
// or cancellation) and false when the caller should advance to the next
// block.
func (p *Paginator) scanBlock(ctx context.Context, drv PageDriver, cur *cursor, maxPages int, records *[]types.ReviewRecord) bool {
	blockSize := p.profile.BlockSize
	if blockSize <= 0 {
		blockSize = 10
	}
	start := cur.next

	for i := 0; i < blockSize; i++ {
		if ctx.Err() != nil {
			p.logger.Warn("crawl cancelled, returning partial results",
				"pages_visited", cur.visited)
			return true
		}
		if cur.visited >= maxPages {
			p.logger.Debug("page budget exhausted", "budget", maxPages)
			return true
		}

		n := start + i
		switch drv.PageNumber(p.profile.PageAnchorClass, n) {
		case PageMissing:
			// The first number of a block missing after block one means
			// the widget has run out of pages. Missing numbers later in
			// a block are skipped; the next-block control decides.
			if i == 0 && cur.block > 0 {
				p.logger.Debug("end of pages", "page", n)
				return true
			}
			continue

		case PageReady:
			if err := drv.ClickPageNumber(p.profile.PageAnchorClass, n); err != nil {
				p.logger.Warn("page click failed, skipping", "page", n, "error", err)
				continue
			}
			drv.Settle(ctx, jitter(p.cfg.ClickDelay))

		case PageCurrent:
			// Already on this page; clicking it would be a wasted
			// round-trip at best.
		}

		count := p.scanPage(drv, n, records)
		p.logger.Debug("page scanned", "page", n, "reviews", count)
		cur.visited++
		cur.next = n + 1
	}
	return false
}

// scanPage extracts every review in the settled DOM. Errors here cost
// one page's reviews, never the crawl.
func (p *Paginator) scanPage(drv PageDriver, page int, records *[]types.ReviewRecord) int {
	html, err := drv.HTML()
	if err != nil {
		p.logger.Warn("page snapshot failed, skipping", "page", page, "error", err)
		return 0
	}
	doc, err := extract.ParseDocument(html)
	if err != nil {
		p.logger.Warn("page parse failed, skipping", "page", page, "error", err)
		return 0
	}
	reviews := extract.Reviews(doc, p.profile)
	*records = append(*records, reviews...)
	return len(reviews)
}

// jitter spreads a delay ±25% around its base so page clicks do not
// fire in a perfectly regular burst.
func jitter(base time.Duration) time.Duration {
	spread := float64(base) * 0.25
	return base + time.Duration(rand.Float64()*2*spread-spread)
}
