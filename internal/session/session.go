package session

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/reviewscope/crawler/internal/config"
	"github.com/reviewscope/crawler/internal/types"
)

// Session owns the single headless browser process behind the engine.
// The process launches lazily on first use and is reused afterwards;
// pages are isolated, so sharing the process across crawls is safe while
// sharing a page is not. Callers own the pages they open and must close
// them on every exit path.
type Session struct {
	cfg    *config.BrowserConfig
	logger *slog.Logger

	mu      sync.Mutex
	browser *rod.Browser
	closed  bool
}

// New creates a session manager. No browser process is started until
// the first page is requested.
func New(cfg *config.BrowserConfig, logger *slog.Logger) *Session {
	return &Session{
		cfg:    cfg,
		logger: logger.With("component", "browser_session"),
	}
}

// acquire returns the shared browser, launching it on first call.
// A launch failure is fatal for the whole session: there is no retry at
// this layer, the caller gets the error and decides.
func (s *Session) acquire() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.ErrSessionClosed
	}
	if s.browser != nil {
		return s.browser, nil
	}

	controlURL, err := s.launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect: %v", types.ErrBrowserLaunch, err)
	}

	s.browser = browser
	s.logger.Info("browser session ready", "stealth", s.cfg.Stealth)
	return browser, nil
}

// launch starts a Chromium instance with the usual container-safe flags.
func (s *Session) launch() (string, error) {
	l := launcher.New().
		Headless(s.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")

	if s.cfg.NoSandbox {
		l = l.Set("no-sandbox").Set("disable-setuid-sandbox")
	}

	return l.Launch()
}

// NewPage opens an isolated page with a realistic desktop user-agent.
// The caller must Close it, including on error paths.
func (s *Session) NewPage() (*rod.Page, error) {
	browser, err := s.acquire()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if s.cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if ua := s.userAgent(); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			s.logger.Warn("failed to set user agent", "error", err)
		}
	}

	return page, nil
}

// Close shuts the browser process down. The session is unusable after.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.browser == nil {
		return nil
	}

	err := s.browser.Close()
	s.browser = nil
	s.logger.Info("browser session closed")
	return err
}

func (s *Session) userAgent() string {
	if len(s.cfg.UserAgents) == 0 {
		return ""
	}
	return s.cfg.UserAgents[rand.Intn(len(s.cfg.UserAgents))]
}
