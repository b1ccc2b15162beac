// Package yahoo implements provider.Provider on top of the Yahoo Finance
// quoteSummary and chart endpoints.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"divcompiler/internal/provider/yahoo/dto"
	"divcompiler/internal/utils"
	"divcompiler/models"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://query2.finance.yahoo.com"

var (
	// ErrNotFound is returned for symbols Yahoo does not know.
	ErrNotFound = errors.New("yahoo: symbol not found")
	// ErrUnauthorized is returned when the crumb or cookie was rejected.
	ErrUnauthorized = errors.New("yahoo: unauthorized")
)

type Client struct {
	baseURL   string
	userAgent string
	http      *RLClient
	session   Session
	logger    *utils.Logger
}

type Option func(*Client)

// BaseURL points the client at another API host, such as a test server.
func BaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// UserAgent sets the User-Agent header sent with every request.
func UserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger traces requests to l at debug level.
func WithLogger(l *utils.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient returns a client that sends every request through httpClient and
// authenticates quoteSummary calls with session.
func NewClient(httpClient *RLClient, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    httpClient,
		session: session,
		logger:  utils.NewNopLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Record combines quoteSummary metadata with the full dividend history.
func (c *Client) Record(ctx context.Context, symbol string) (*models.TickerRecord, error) {
	summary, err := c.quoteSummary(ctx, symbol)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("range", "max")
	q.Set("interval", "3mo")
	q.Set("events", "div")
	chart, err := c.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}

	record := &models.TickerRecord{Symbol: symbol}
	if p := summary.Price; p != nil {
		if p.Symbol != "" {
			record.Symbol = p.Symbol
		}
		record.LongName = p.LongName
		record.Currency = p.Currency
	}
	if d := summary.SummaryDetail; d != nil {
		if record.Currency == "" {
			record.Currency = d.Currency
		}
		if v := d.DividendYield.Raw; v != nil {
			record.DividendYield = optional.Some(decimal.NewFromFloat(*v).Mul(decimal.NewFromInt(100)))
		}
		if v := d.DividendRate.Raw; v != nil {
			record.DividendRate = optional.Some(decimal.NewFromFloat(*v))
		}
		if v := d.ExDividendDate.Raw; v != nil {
			record.ExDividendDate = optional.Some(models.Date(time.Unix(int64(*v), 0).UTC()))
		}
	}
	if record.LongName == "" {
		record.LongName = chart.Meta.LongName
	}

	loc := exchangeLocation(chart.Meta)
	for _, ev := range chart.Events.Dividends {
		record.Dividends = append(record.Dividends, models.Dividend{
			Date:   models.Date(time.Unix(ev.Date, 0).In(loc)),
			Amount: decimal.NewFromFloat(ev.Amount),
		})
	}
	sort.Slice(record.Dividends, func(i, j int) bool {
		return record.Dividends[i].Date.Before(record.Dividends[j].Date)
	})

	return record, nil
}

// History returns daily bars with dates in [start, end). The request range is
// padded by a day on both sides because Yahoo bounds it in UTC seconds while
// bars are stamped at the exchange open.
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Add(-24*time.Hour).Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Add(24*time.Hour).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")

	chart, err := c.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	return chartBars(chart, models.Date(start), models.Date(end)), nil
}

func chartBars(chart *dto.ChartResult, start, end time.Time) []models.PriceBar {
	if len(chart.Indicators.Quote) == 0 {
		return nil
	}
	quote := chart.Indicators.Quote[0]
	loc := exchangeLocation(chart.Meta)

	dividends := make(map[time.Time]decimal.Decimal)
	for _, ev := range chart.Events.Dividends {
		dividends[models.Date(time.Unix(ev.Date, 0).In(loc))] = decimal.NewFromFloat(ev.Amount)
	}
	splits := make(map[time.Time]decimal.Decimal)
	for _, ev := range chart.Events.Splits {
		if ev.Denominator == 0 {
			continue
		}
		splits[models.Date(time.Unix(ev.Date, 0).In(loc))] = decimal.NewFromFloat(ev.Numerator).Div(decimal.NewFromFloat(ev.Denominator))
	}

	bars := make([]models.PriceBar, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		date := models.Date(time.Unix(ts, 0).In(loc))
		if date.Before(start) || !date.Before(end) {
			continue
		}
		open, high, low, closePrice := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if open == nil || high == nil || low == nil || closePrice == nil {
			continue
		}
		bar := models.PriceBar{
			Date:        date,
			Open:        decimal.NewFromFloat(*open),
			High:        decimal.NewFromFloat(*high),
			Low:         decimal.NewFromFloat(*low),
			Close:       decimal.NewFromFloat(*closePrice),
			Dividends:   dividends[date],
			StockSplits: splits[date],
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = int64(*v)
		}
		bars = append(bars, bar)
	}
	return bars
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func exchangeLocation(meta dto.ChartMeta) *time.Location {
	if meta.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(meta.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	return time.FixedZone(meta.ExchangeTimezoneName, meta.GMTOffset)
}

func (c *Client) quoteSummary(ctx context.Context, symbol string) (*dto.QuoteSummaryResult, error) {
	crumb, err := c.session.Crumb(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("modules", "price,summaryDetail")
	q.Set("crumb", crumb)

	var body dto.QuoteSummaryResponse
	err = c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), q, &body)
	if errors.Is(err, ErrUnauthorized) {
		c.session.Reset()
	}
	if err != nil && body.QuoteSummary.Error == nil {
		return nil, err
	}
	if e := body.QuoteSummary.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, e.Description)
		}
		return nil, fmt.Errorf("yahoo: %s: %s", e.Code, e.Description)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: empty quoteSummary", ErrNotFound)
	}
	return &body.QuoteSummary.Result[0], nil
}

func (c *Client) chart(ctx context.Context, symbol string, q url.Values) (*dto.ChartResult, error) {
	var body dto.ChartResponse
	err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), q, &body)
	if err != nil && body.Chart.Error == nil {
		return nil, err
	}
	if e := body.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, e.Description)
		}
		return nil, fmt.Errorf("yahoo: %s: %s", e.Code, e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty chart", ErrNotFound)
	}
	return &body.Chart.Result[0], nil
}

// get decodes the JSON body into out even on error statuses, since Yahoo
// reports lookup failures in the body of a 404.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("GET %s", path)
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	decodeErr := json.NewDecoder(res.Body).Decode(out)
	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: http %d", ErrUnauthorized, res.StatusCode)
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: http %d", ErrNotFound, res.StatusCode)
	case res.StatusCode >= 400:
		return fmt.Errorf("yahoo http %d", res.StatusCode)
	case decodeErr != nil:
		return fmt.Errorf("decode %s: %w", path, decodeErr)
	}
	return nil
}
