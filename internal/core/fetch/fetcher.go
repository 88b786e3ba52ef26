// Package fetch retrieves page content for extraction. A smart fetch tries a
// plain HTTP GET first and falls back to headless-browser rendering when the
// host is known to render client-side or the cleaned content is too short.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Result holds raw and cleaned page content.
type Result struct {
	RawHTML     string
	Text        string
	ContentHTML string
	Title       string
	Byline      string
	SiteName    string
	Excerpt     string
	Rendered    bool
	Duration    time.Duration
}

// Fetcher retrieves and cleans page content. Safe for concurrent use;
// rendered fetches share one browser process, bounded by a semaphore.
type Fetcher struct {
	cfg     *config.FetchConfig
	client  *resty.Client
	browser *Browser

	// render is swappable for tests; defaults to the shared browser.
	render func(ctx context.Context, url string) (string, error)
}

// New creates a Fetcher. The browser process starts lazily on the first
// rendered fetch; Close must be called to shut it down.
func New(cfg *config.FetchConfig) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", "he-IL,he;q=0.9,en-US;q=0.6,en;q=0.5").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	f := &Fetcher{
		cfg:     cfg,
		client:  client,
		browser: newBrowser(cfg),
	}
	f.render = f.browser.HTML
	return f
}

// ValidateURL rejects malformed or non-HTTP URLs before any I/O.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, common.ErrInvalidURL.WithCause(err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, common.ErrInvalidURL
	}
	return u, nil
}

// Fetch retrieves the page and cleans it into main-article text. Single
// attempt, no retries; a fetch error is fatal for this URL only.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()

	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	if f.needsRender(u.Host) {
		common.LogDebug("fetch: host requires rendering", zap.String("host", u.Host))
		res, err := f.fetchRendered(ctx, rawURL, u)
		common.LogFetch(rawURL, true, time.Since(start), err)
		if res != nil {
			res.Duration = time.Since(start)
		}
		return res, err
	}

	res, plainErr := f.fetchPlain(ctx, rawURL, u)
	if plainErr == nil && len(res.Text) >= f.cfg.MinContentLength {
		res.Duration = time.Since(start)
		common.LogFetch(rawURL, false, res.Duration, nil)
		return res, nil
	}

	if plainErr != nil {
		common.LogDebug("fetch: plain fetch failed, falling back to rendering",
			zap.String("url", rawURL), zap.Error(plainErr))
	} else {
		common.LogDebug("fetch: content too short, falling back to rendering",
			zap.String("url", rawURL), zap.Int("length", len(res.Text)))
	}

	rendered, renderErr := f.fetchRendered(ctx, rawURL, u)
	if renderErr != nil {
		// A short plain result still beats nothing.
		if plainErr == nil {
			res.Duration = time.Since(start)
			common.LogFetch(rawURL, false, res.Duration, nil)
			return res, nil
		}
		err := common.ErrFetchFailed.WithCause(fmt.Errorf("plain fetch: %v; rendered fetch: %w", plainErr, renderErr))
		common.LogFetch(rawURL, true, time.Since(start), err)
		return nil, err
	}

	rendered.Duration = time.Since(start)
	common.LogFetch(rawURL, true, rendered.Duration, nil)
	return rendered, nil
}

// Close shuts down the shared browser process. Leaks a subprocess if skipped.
func (f *Fetcher) Close() {
	f.browser.Close()
}

func (f *Fetcher) needsRender(host string) bool {
	host = strings.ToLower(host)
	for _, h := range f.cfg.RenderHosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (f *Fetcher) fetchPlain(ctx context.Context, rawURL string, u *url.URL) (*Result, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return clean(string(resp.Body()), u, false)
}

func (f *Fetcher) fetchRendered(ctx context.Context, rawURL string, u *url.URL) (*Result, error) {
	html, err := f.render(ctx, rawURL)
	if err != nil {
		return nil, common.ErrFetchFailed.WithCause(err)
	}
	return clean(html, u, true)
}

// clean runs readability-style main-content extraction over raw HTML.
func clean(html string, u *url.URL, rendered bool) (*Result, error) {
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		// Keep the raw document; downstream structured parsing works on it.
		return &Result{RawHTML: html, Rendered: rendered}, nil
	}

	return &Result{
		RawHTML:     html,
		Text:        strings.TrimSpace(article.TextContent),
		ContentHTML: article.Content,
		Title:       article.Title,
		Byline:      article.Byline,
		SiteName:    article.SiteName,
		Excerpt:     article.Excerpt,
		Rendered:    rendered,
	}, nil
}
