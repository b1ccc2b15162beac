package yahoo

import (
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/time/rate"
)

// RLClient is an HTTP client whose requests all wait on one rate limiter.
type RLClient struct {
	Client      *http.Client
	Ratelimiter *rate.Limiter
}

func (c *RLClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.Ratelimiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.Client.Do(req)
}

// Jar returns the cookie jar shared by the client and its session.
func (c *RLClient) Jar() http.CookieJar {
	return c.Client.Jar
}

// NewRLClient builds a rate limited client with its own cookie jar.
// perSecond <= 0 disables limiting.
func NewRLClient(timeout time.Duration, perSecond float64, burst int) *RLClient {
	jar, _ := cookiejar.New(nil)

	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}

	return &RLClient{
		Client:      &http.Client{Timeout: timeout, Transport: t, Jar: jar},
		Ratelimiter: rate.NewLimiter(limit, burst),
	}
}
