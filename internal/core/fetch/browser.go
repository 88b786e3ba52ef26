package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
)

// trackingHosts are aborted during rendering; they never carry recipe content.
var trackingHosts = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"doubleclick.net",
	"facebook.net",
	"facebook.com/tr",
	"hotjar.com",
	"taboola.com",
	"outbrain.com",
}

// Browser wraps a process-wide headless Chromium instance. The process starts
// lazily on first use and persists across fetches until Close; every fetch
// gets its own isolated page. Concurrent renders are capped by a semaphore
// since they contend for one browser process.
type Browser struct {
	cfg *config.FetchConfig

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser

	sem chan struct{}
}

func newBrowser(cfg *config.FetchConfig) *Browser {
	return &Browser{
		cfg: cfg,
		sem: make(chan struct{}, cfg.MaxRenders),
	}
}

// get returns the shared browser, launching it on first use.
func (b *Browser) get() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().
		Headless(true).
		Set("no-sandbox").
		Set("disable-extensions").
		Set("disable-plugins")
	if b.cfg.BrowserBin != "" {
		l = l.Bin(b.cfg.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	common.LogInfo("headless browser started", zap.String("control_url", controlURL))

	b.launcher = l
	b.browser = browser
	return browser, nil
}

// HTML navigates to the URL in a fresh page and returns the rendered HTML
// after client-side scripts have had a fixed settle period.
func (b *Browser) HTML(ctx context.Context, url string) (string, error) {
	select {
	case b.sem <- struct{}{}:
		defer func() { <-b.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	browser, err := b.get()
	if err != nil {
		return "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			common.LogWarn("failed to close page", zap.Error(err))
		}
	}()

	page = page.Context(ctx)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: userAgent,
	}); err != nil {
		common.LogWarn("failed to set user agent", zap.Error(err))
	}

	router := page.HijackRequests()
	err = router.Add("*", "", func(h *rod.Hijack) {
		if blockedRequest(h) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return "", fmt.Errorf("failed to install request filter: %w", err)
	}
	go router.Run()
	defer func() { _ = router.Stop() }()

	// Navigate with a load wait; on timeout settle for whatever rendered.
	err = rod.Try(func() {
		page.Timeout(b.cfg.NavigationTimeout).MustNavigate(url).MustWaitLoad()
	})
	if err != nil {
		common.LogWarn("navigation wait timed out, proceeding with partial load",
			zap.String("url", url), zap.Error(err))
	}

	// Fixed settle period for client-side rendering.
	select {
	case <-time.After(b.cfg.SettleDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read rendered html: %w", err)
	}
	return html, nil
}

// Close shuts the browser process down. Safe to call without a running
// browser and safe to call more than once.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			common.LogWarn("failed to close browser", zap.Error(err))
		}
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
		b.launcher = nil
	}
}

// blockedRequest drops images, fonts, stylesheets, media and known tracking
// hosts to speed rendering up.
func blockedRequest(h *rod.Hijack) bool {
	switch h.Request.Type() {
	case proto.NetworkResourceTypeImage,
		proto.NetworkResourceTypeFont,
		proto.NetworkResourceTypeStylesheet,
		proto.NetworkResourceTypeMedia:
		return true
	}

	host := h.Request.URL().Host
	for _, t := range trackingHosts {
		if strings.Contains(host, t) {
			return true
		}
	}
	return false
}
