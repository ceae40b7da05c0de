package paginator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/reviewscope/crawler/internal/types"
)

// PageNumberState describes a page-number control in the pagination
// widget.
type PageNumberState int

const (
	// PageMissing means no control with that number is in the DOM.
	PageMissing PageNumberState = iota
	// PageCurrent means the control exists and is the active page.
	PageCurrent
	// PageReady means the control exists and can be clicked.
	PageReady
)

// PageDriver is the minimal surface the paginator needs from a live
// page. The production implementation drives a rod page; tests use a
// fake. Every lookup tolerates absence: a missing element is a state,
// not an error.
type PageDriver interface {
	// Navigate loads the target URL. Navigation failure is fatal for
	// the crawl.
	Navigate(ctx context.Context, url string) error

	// Settle waits for client-side rendering to catch up. There is no
	// reliable "ready" signal on these storefronts; a deliberate delay
	// is the documented heuristic.
	Settle(ctx context.Context, d time.Duration)

	// ClickIfPresent clicks the first element matching the selector and
	// reports whether anything was clicked.
	ClickIfPresent(selector string) bool

	// ClickByLabel clicks the first element matching the selector whose
	// visible text contains label.
	ClickByLabel(selector, label string) bool

	// PageNumber reports the state of the page-number control whose
	// exact visible text equals n, within the currently shown block.
	PageNumber(classFragment string, n int) PageNumberState

	// ClickPageNumber clicks that control.
	ClickPageNumber(classFragment string, n int) error

	// ClickNextBlock clicks the next-block control when it is present
	// and not hidden, reporting whether it advanced.
	ClickNextBlock(label string) bool

	// HTML returns the current DOM serialized for extraction.
	HTML() (string, error)

	// Close releases the underlying page.
	Close() error
}

// rodDriver drives a live rod page.
type rodDriver struct {
	page    *rod.Page
	timeout time.Duration
	logger  *slog.Logger
}

// NewRodDriver wraps a rod page as a PageDriver. The timeout bounds
// navigation only; element lookups never wait.
func NewRodDriver(page *rod.Page, timeout time.Duration, logger *slog.Logger) PageDriver {
	return &rodDriver{
		page:    page,
		timeout: timeout,
		logger:  logger.With("component", "page_driver"),
	}
}

func (d *rodDriver) Navigate(ctx context.Context, url string) error {
	page := d.page.Context(ctx).Timeout(d.timeout)
	if err := page.Navigate(url); err != nil {
		return &types.NavigationError{URL: url, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return &types.NavigationError{URL: url, Err: err}
	}
	// Best effort: the review widget injects itself after load.
	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		d.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}
	return nil
}

func (d *rodDriver) Settle(ctx context.Context, delay time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func (d *rodDriver) ClickIfPresent(selector string) bool {
	has, el, err := d.page.Has(selector)
	if err != nil || !has {
		return false
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		d.logger.Warn("click failed", "selector", selector, "error", err)
		return false
	}
	return true
}

func (d *rodDriver) ClickByLabel(selector, label string) bool {
	els, err := d.page.Elements(selector)
	if err != nil {
		return false
	}
	for _, el := range els {
		text, err := el.Text()
		if err != nil || !strings.Contains(text, label) {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			d.logger.Warn("click failed", "selector", selector, "label", label, "error", err)
			return false
		}
		return true
	}
	return false
}

func (d *rodDriver) PageNumber(classFragment string, n int) PageNumberState {
	has, el, err := d.page.HasX(pageNumberXPath(classFragment, n))
	if err != nil || !has {
		return PageMissing
	}
	current, err := el.Attribute("aria-current")
	if err == nil && current != nil && *current == "true" {
		return PageCurrent
	}
	return PageReady
}

func (d *rodDriver) ClickPageNumber(classFragment string, n int) error {
	has, el, err := d.page.HasX(pageNumberXPath(classFragment, n))
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("page control %d not found", n)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (d *rodDriver) ClickNextBlock(label string) bool {
	els, err := d.page.ElementsX(fmt.Sprintf(`//a[text()=%q]`, label))
	if err != nil {
		return false
	}
	for _, el := range els {
		hidden, err := el.Attribute("aria-hidden")
		if err != nil || hidden == nil || *hidden != "false" {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			d.logger.Warn("next block click failed", "error", err)
			return false
		}
		return true
	}
	return false
}

func (d *rodDriver) HTML() (string, error) {
	return d.page.HTML()
}

func (d *rodDriver) Close() error {
	return d.page.Close()
}

// pageNumberXPath matches the page-number anchor whose exact visible
// text is n. The class name is obfuscated and churns, so only a
// fragment is matched.
func pageNumberXPath(classFragment string, n int) string {
	return fmt.Sprintf(`//a[contains(@class,%q) and text()="%d"]`, classFragment, n)
}
