package paginator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/reviewscope/crawler/internal/config"
	"github.com/reviewscope/crawler/internal/platform"
)

// fakeDriver simulates the block pagination widget: pages blockStart
// through blockStart+blockSize-1 are visible, capped at totalPages, and
// the next-block control advances the window.
type fakeDriver struct {
	totalPages int
	blockSize  int
	current    int
	blockStart int

	navErr     error
	clickErr   map[int]error
	hiddenNext bool
	stickyNext bool // next control stays actionable past the last page

	navigated  []string
	clicked    []int
	nextClicks int
	sortClicks int
	onScan     func(page int) // called from HTML(), before the snapshot
}

func newFakeDriver(totalPages int) *fakeDriver {
	return &fakeDriver{
		totalPages: totalPages,
		blockSize:  10,
		current:    1,
		blockStart: 1,
	}
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}

func (f *fakeDriver) Settle(ctx context.Context, d time.Duration) {}

func (f *fakeDriver) ClickIfPresent(selector string) bool { return false }

func (f *fakeDriver) ClickByLabel(selector, label string) bool {
	f.sortClicks++
	return true
}

func (f *fakeDriver) PageNumber(classFragment string, n int) PageNumberState {
	if n < f.blockStart || n >= f.blockStart+f.blockSize || n > f.totalPages {
		return PageMissing
	}
	if n == f.current {
		return PageCurrent
	}
	return PageReady
}

func (f *fakeDriver) ClickPageNumber(classFragment string, n int) error {
	if err := f.clickErr[n]; err != nil {
		return err
	}
	f.clicked = append(f.clicked, n)
	f.current = n
	return nil
}

func (f *fakeDriver) ClickNextBlock(label string) bool {
	if f.hiddenNext {
		return false
	}
	if !f.stickyNext && f.blockStart+f.blockSize > f.totalPages {
		return false
	}
	f.blockStart += f.blockSize
	f.nextClicks++
	return true
}

func (f *fakeDriver) HTML() (string, error) {
	if f.onScan != nil {
		f.onScan(f.current)
	}
	return fmt.Sprintf(`<ul class="RR2FSL9wTc"><li><div class="HakaEZ240l">review page %d</div></li></ul>`, f.current), nil
}

func (f *fakeDriver) Close() error { return nil }

func testPaginator(t *testing.T) *Paginator {
	t.Helper()
	profile, ok := platform.Lookup(platform.Naver)
	if !ok {
		t.Fatal("naver profile not registered")
	}
	cfg := &config.CrawlConfig{MaxPages: 500}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(profile, cfg, logger)
}

func TestRunSingleBlock(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(7)

	records, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != 7 {
		t.Fatalf("got %d records, want 7 (one per page)", len(records))
	}
	for i, rec := range records {
		want := fmt.Sprintf("review page %d", i+1)
		if rec.Content != want {
			t.Errorf("records[%d].Content = %q, want %q", i, rec.Content, want)
		}
	}

	// Page 1 is current after navigation and must not be clicked.
	if len(drv.clicked) != 6 {
		t.Errorf("clicked %v, want pages 2..7 only", drv.clicked)
	}
	for _, n := range drv.clicked {
		if n == 1 {
			t.Error("current page was clicked")
		}
	}
	if drv.nextClicks != 0 {
		t.Errorf("next-block clicked %d times, want 0", drv.nextClicks)
	}
}

func TestRunMultipleBlocks(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(13)

	records, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != 13 {
		t.Errorf("got %d records, want 13", len(records))
	}
	if drv.nextClicks != 1 {
		t.Errorf("next-block clicked %d times, want 1", drv.nextClicks)
	}
	if records[12].Content != "review page 13" {
		t.Errorf("last record = %q", records[12].Content)
	}
}

func TestRunExactBlockNoNext(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(10)

	records, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != 10 {
		t.Errorf("got %d records, want all 10 pages of the block", len(records))
	}
	for _, n := range drv.clicked {
		if n > 10 {
			t.Errorf("clicked page %d past the last page", n)
		}
	}
	if drv.nextClicks != 0 {
		t.Errorf("next-block clicked %d times, want 0", drv.nextClicks)
	}
}

func TestRunPageBudget(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(30)

	records, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 5)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != 5 {
		t.Errorf("got %d records, want the 5-page budget", len(records))
	}
	if len(drv.clicked) > 5 {
		t.Errorf("%d page clicks, budget allows at most 5", len(drv.clicked))
	}
	if drv.nextClicks != 0 {
		t.Errorf("budget exhausted inside block one, next-block clicks = %d", drv.nextClicks)
	}
}

func TestRunEmptyBlockEndsCrawl(t *testing.T) {
	// Some widgets keep the next control actionable one block past the
	// end, landing on a block with no page numbers at all. A missing
	// first number on a block after the first means out of pages.
	p := testPaginator(t)
	drv := newFakeDriver(20)
	drv.stickyNext = true

	records, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != 20 {
		t.Errorf("got %d records, want all 20 pages", len(records))
	}
	// Two real blocks plus the advance into the empty third one.
	if drv.nextClicks != 2 {
		t.Errorf("next-block clicked %d times, want 2", drv.nextClicks)
	}
	for _, n := range drv.clicked {
		if n > 20 {
			t.Errorf("clicked page %d past the last page", n)
		}
	}
}

func TestRunHiddenNextControl(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(25)
	drv.hiddenNext = true

	records, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != 10 {
		t.Errorf("got %d records, want 10 (one block, hidden next control)", len(records))
	}
}

func TestRunNavigationError(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(5)
	drv.navErr = errors.New("net::ERR_CONNECTION_RESET")

	records, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 0)
	if err == nil {
		t.Fatal("Run() error = nil, want navigation error")
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestRunPageClickErrorSkipsPage(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(5)
	drv.clickErr = map[int]error{3: errors.New("element detached")}

	records, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4 (page 3 skipped)", len(records))
	}
	for _, rec := range records {
		if rec.Content == "review page 3" {
			t.Error("page 3 should have been skipped")
		}
	}
}

func TestRunCancellationReturnsPartial(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(30)

	ctx, cancel := context.WithCancel(context.Background())
	drv.onScan = func(page int) {
		if page == 3 {
			cancel()
		}
	}

	records, err := p.Run(ctx, drv, "https://smartstore.naver.com/shop/products/1", 0)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil with partial results", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want the 3 scanned before cancellation", len(records))
	}
}

func TestRunAppendsReviewAnchor(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(1)

	if _, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 0); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(drv.navigated) != 1 || !strings.HasSuffix(drv.navigated[0], "#REVIEW") {
		t.Errorf("navigated to %v, want the review anchor appended", drv.navigated)
	}

	// A URL that already carries the anchor is left alone.
	drv2 := newFakeDriver(1)
	if _, err := p.Run(context.Background(), drv2, "https://smartstore.naver.com/shop/products/1#REVIEW", 0); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Count(drv2.navigated[0], "#REVIEW") != 1 {
		t.Errorf("anchor duplicated: %q", drv2.navigated[0])
	}
}

func TestRunSortsByNewest(t *testing.T) {
	p := testPaginator(t)
	drv := newFakeDriver(1)

	if _, err := p.Run(context.Background(), drv, "https://smartstore.naver.com/shop/products/1", 0); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if drv.sortClicks != 1 {
		t.Errorf("sort control clicked %d times, want 1", drv.sortClicks)
	}
}

func TestJitterStaysInBounds(t *testing.T) {
	base := 1500 * time.Millisecond
	lo := time.Duration(float64(base) * 0.75)
	hi := time.Duration(float64(base) * 1.25)
	for i := 0; i < 100; i++ {
		d := jitter(base)
		if d < lo || d > hi {
			t.Fatalf("jitter(%v) = %v, outside [%v, %v]", base, d, lo, hi)
		}
	}
}
