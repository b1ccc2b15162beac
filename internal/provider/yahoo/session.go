package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"divcompiler/internal/utils"

	"github.com/antchfx/htmlquery"
)

// ErrNoCrumb is returned when Yahoo does not hand out a usable crumb.
var ErrNoCrumb = errors.New("yahoo: no crumb")

// Session provides the cookie and crumb pair required by quoteSummary.
// Cookies are stored in the jar of the RLClient the session was built with.
type Session interface {
	Crumb(ctx context.Context) (string, error)
	// Reset drops the cached crumb so the next call negotiates a new one.
	Reset()
}

// HTTPSession negotiates cookies and a crumb with plain HTTP requests,
// accepting the EU consent form when Yahoo redirects to it.
type HTTPSession struct {
	client    *RLClient
	baseURL   string
	cookieURL string
	userAgent string
	logger    *utils.Logger

	mu    sync.Mutex
	crumb string
}

func NewHTTPSession(client *RLClient, baseURL, cookieURL, userAgent string, logger *utils.Logger) *HTTPSession {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &HTTPSession{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		cookieURL: cookieURL,
		userAgent: userAgent,
		logger:    logger,
	}
}

func (s *HTTPSession) Crumb(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.crumb != "" {
		return s.crumb, nil
	}

	if err := s.fetchCookie(ctx); err != nil {
		return "", fmt.Errorf("fetch cookie: %w", err)
	}

	crumb, err := fetchCrumb(ctx, s.client, s.baseURL, s.userAgent)
	if err != nil {
		return "", err
	}
	s.logger.Debug("Obtained crumb over HTTP")
	s.crumb = crumb
	return crumb, nil
}

func (s *HTTPSession) Reset() {
	s.mu.Lock()
	s.crumb = ""
	s.mu.Unlock()
}

func (s *HTTPSession) fetchCookie(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cookieURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.userAgent)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// fc.yahoo.com answers 404 but still sets the cookie, so the status is
	// not checked. Only the consent page needs further work.
	doc, err := htmlquery.Parse(res.Body)
	if err != nil {
		return nil
	}
	form := htmlquery.FindOne(doc, "//form[contains(@class,'consent-form')]")
	if form == nil {
		return nil
	}

	s.logger.Debug("Accepting consent form at %s", res.Request.URL)

	action, err := res.Request.URL.Parse(htmlquery.SelectAttr(form, "action"))
	if err != nil {
		return fmt.Errorf("consent form action: %w", err)
	}
	values := url.Values{}
	for _, input := range htmlquery.Find(form, ".//input[@type='hidden']") {
		if name := htmlquery.SelectAttr(input, "name"); name != "" {
			values.Set(name, htmlquery.SelectAttr(input, "value"))
		}
	}
	values.Set("agree", "agree")

	post, err := http.NewRequestWithContext(ctx, http.MethodPost, action.String(), strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	post.Header.Set("User-Agent", s.userAgent)

	consent, err := s.client.Do(post)
	if err != nil {
		return fmt.Errorf("submit consent: %w", err)
	}
	defer consent.Body.Close()
	_, _ = io.Copy(io.Discard, consent.Body)

	if consent.StatusCode >= 400 {
		return fmt.Errorf("submit consent: http %d", consent.StatusCode)
	}
	return nil
}

// fetchCrumb reads /v1/test/getcrumb with whatever cookies the jar holds.
func fetchCrumb(ctx context.Context, client *RLClient, baseURL, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch crumb: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("fetch crumb: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: http %d", ErrNoCrumb, res.StatusCode)
	}
	return validCrumb(string(body))
}

func validCrumb(body string) (string, error) {
	crumb := strings.TrimSpace(body)
	if crumb == "" || strings.ContainsAny(crumb, "<> \n") {
		return "", ErrNoCrumb
	}
	return crumb, nil
}
