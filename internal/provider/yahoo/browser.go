package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"divcompiler/internal/utils"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// BrowserOptions configure the headless Chrome used by BrowserSession.
type BrowserOptions struct {
	BaseURL   string
	PageURL   string
	UserAgent string
	Headless  bool
	Debug     bool
}

// BrowserSession obtains cookies and a crumb by loading Yahoo Finance in
// Chrome. It is the fallback for networks where the consent flow cannot be
// completed over plain HTTP.
type BrowserSession struct {
	jar    http.CookieJar
	opts   BrowserOptions
	logger *utils.Logger

	mu    sync.Mutex
	crumb string
}

func NewBrowserSession(client *RLClient, opts BrowserOptions, logger *utils.Logger) *BrowserSession {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if opts.PageURL == "" {
		opts.PageURL = "https://finance.yahoo.com/"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &BrowserSession{jar: client.Jar(), opts: opts, logger: logger}
}

func (s *BrowserSession) Reset() {
	s.mu.Lock()
	s.crumb = ""
	s.mu.Unlock()
}

func (s *BrowserSession) Crumb(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.crumb != "" {
		return s.crumb, nil
	}

	s.logger.Debug("Launching Chrome to negotiate a Yahoo session")
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.NoSandbox,
		chromedp.Flag("headless", s.opts.Headless),
		chromedp.Flag("enable-logging", s.opts.Debug),
		chromedp.UserAgent(s.opts.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	ctxOpts := []chromedp.ContextOption{chromedp.WithLogf(s.logger.Debug)}
	if s.opts.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(s.logger.Debug))
	}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, ctxOpts...)
	defer cancelBrowser()

	err := chromedp.Run(browserCtx,
		network.Enable(),
		emulation.SetUserAgentOverride(s.opts.UserAgent),
		chromedp.Navigate(s.opts.PageURL),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}

	s.acceptConsent(browserCtx)

	var crumb string
	err = chromedp.Run(browserCtx,
		chromedp.Evaluate(fmt.Sprintf(`fetch(%q, {credentials: "include"}).then(r => r.text())`, s.opts.BaseURL+"/v1/test/getcrumb"),
			&crumb,
			func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
		chromedp.ActionFunc(s.copyCookies),
	)
	if err != nil {
		return "", fmt.Errorf("failed to read crumb: %w", err)
	}

	crumb, err = validCrumb(crumb)
	if err != nil {
		return "", err
	}
	s.logger.Debug("Obtained crumb through Chrome")
	s.crumb = crumb
	return crumb, nil
}

// acceptConsent clicks the consent button when the EU consent page is shown.
// Its absence is not an error.
func (s *BrowserSession) acceptConsent(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Click(`form.consent-form button[name="agree"]`, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		s.logger.Debug("No consent form accepted: %v", err)
	}
}

func (s *BrowserSession) copyCookies(ctx context.Context) error {
	urls := []string{s.opts.PageURL, s.opts.BaseURL}
	cookies, err := network.GetCookies().WithURLs(urls).Do(ctx)
	if err != nil {
		return fmt.Errorf("get cookies: %w", err)
	}

	byURL := make(map[*url.URL][]*http.Cookie)
	targets := make([]*url.URL, 0, len(urls))
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		targets = append(targets, u)
	}
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		for _, u := range targets {
			if cookieMatches(c.Domain, u.Hostname()) {
				byURL[u] = append(byURL[u], hc)
			}
		}
	}
	for u, list := range byURL {
		s.jar.SetCookies(u, list)
	}
	s.logger.Debug("Copied %d browser cookies", len(cookies))
	return nil
}

func cookieMatches(domain, host string) bool {
	domain = strings.TrimPrefix(domain, ".")
	return host == domain || strings.HasSuffix(host, "."+domain)
}
