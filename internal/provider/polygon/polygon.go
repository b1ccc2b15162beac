// Package polygon implements provider.Provider with the polygon.io REST API.
// It covers US listings; Toronto symbols are better served by Yahoo.
package polygon

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"divcompiler/internal/utils"
	"divcompiler/models"

	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	polygonmodels "github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
)

// ErrNoPrice is returned when no recent close is available to compute a yield.
var ErrNoPrice = errors.New("polygon: no recent close")

// AggsIterator is satisfied by the iterator returned from the REST client.
type AggsIterator interface {
	Next() bool
	Item() polygonmodels.Agg
	Err() error
}

type DividendsIterator interface {
	Next() bool
	Item() polygonmodels.Dividend
	Err() error
}

// API is the subset of the polygon REST client used here.
type API interface {
	ListAggs(ctx context.Context, params *polygonmodels.ListAggsParams, opts ...polygonmodels.RequestOption) AggsIterator
	ListDividends(ctx context.Context, params *polygonmodels.ListDividendsParams, opts ...polygonmodels.RequestOption) DividendsIterator
	GetTickerDetails(ctx context.Context, params *polygonmodels.GetTickerDetailsParams, opts ...polygonmodels.RequestOption) (*polygonmodels.GetTickerDetailsResponse, error)
}

type restAPI struct {
	client *polygon.Client
}

func (a restAPI) ListAggs(ctx context.Context, params *polygonmodels.ListAggsParams, opts ...polygonmodels.RequestOption) AggsIterator {
	return a.client.ListAggs(ctx, params, opts...)
}

func (a restAPI) ListDividends(ctx context.Context, params *polygonmodels.ListDividendsParams, opts ...polygonmodels.RequestOption) DividendsIterator {
	return a.client.ListDividends(ctx, params, opts...)
}

func (a restAPI) GetTickerDetails(ctx context.Context, params *polygonmodels.GetTickerDetailsParams, opts ...polygonmodels.RequestOption) (*polygonmodels.GetTickerDetailsResponse, error) {
	return a.client.GetTickerDetails(ctx, params, opts...)
}

type Client struct {
	api    API
	logger *utils.Logger
	now    func() time.Time
	loc    *time.Location
}

// NewClient returns a client authenticated with apiKey.
func NewClient(apiKey string, logger *utils.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("polygon: api key is required")
	}
	return NewClientWithAPI(restAPI{client: polygon.New(apiKey)}, logger), nil
}

// NewClientWithAPI wraps an existing API implementation.
func NewClientWithAPI(api API, logger *utils.Logger) *Client {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	return &Client{api: api, logger: logger, now: time.Now, loc: loc}
}

// Record builds a record from ticker details and the dividend list. The rate
// is the latest cash amount times its yearly frequency and the yield is that
// rate over the most recent close.
func (c *Client) Record(ctx context.Context, symbol string) (*models.TickerRecord, error) {
	res, err := c.api.GetTickerDetails(ctx, &polygonmodels.GetTickerDetailsParams{Ticker: symbol})
	if err != nil {
		return nil, fmt.Errorf("polygon ticker details: %w", err)
	}

	record := &models.TickerRecord{
		Symbol:   res.Results.Ticker,
		LongName: res.Results.Name,
		Currency: strings.ToUpper(res.Results.CurrencyName),
	}
	if record.Symbol == "" {
		record.Symbol = symbol
	}

	dividends, err := c.dividends(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(dividends) == 0 {
		return record, nil
	}

	sort.Slice(dividends, func(i, j int) bool {
		return dividends[i].payDate.Before(dividends[j].payDate)
	})
	for _, d := range dividends {
		record.Dividends = append(record.Dividends, models.Dividend{
			Date:   d.payDate,
			Amount: d.amount,
		})
	}

	latest := dividends[len(dividends)-1]
	if !latest.exDate.IsZero() {
		record.ExDividendDate = optional.Some(latest.exDate)
	}
	if latest.frequency > 0 {
		rate := latest.amount.Mul(decimal.NewFromInt(latest.frequency))
		record.DividendRate = optional.Some(rate)

		closePrice, err := c.lastClose(ctx, symbol)
		if err != nil {
			c.logger.Debug("No yield for %s: %v", symbol, err)
		} else {
			record.DividendYield = optional.Some(rate.Div(closePrice).Mul(decimal.NewFromInt(100)).Round(4))
		}
	}

	return record, nil
}

// History returns daily aggregates with dates in [start, end). Dividends are
// placed on the bar of their ex-dividend date.
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	bars, err := c.aggs(ctx, symbol, start, end.Add(-time.Nanosecond))
	if err != nil {
		return nil, err
	}

	dividends, err := c.dividends(ctx, symbol)
	if err != nil {
		return nil, err
	}
	byExDate := make(map[time.Time]decimal.Decimal)
	for _, d := range dividends {
		if !d.exDate.IsZero() {
			byExDate[d.exDate] = d.amount
		}
	}

	startDate, endDate := models.Date(start), models.Date(end)
	out := make([]models.PriceBar, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.Before(startDate) || !bar.Date.Before(endDate) {
			continue
		}
		bar.Dividends = byExDate[bar.Date]
		out = append(out, bar)
	}
	return out, nil
}

func (c *Client) lastClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	today := models.Date(c.now())
	bars, err := c.aggs(ctx, symbol, today.AddDate(0, 0, -10), today)
	if err != nil {
		return decimal.Zero, err
	}
	if len(bars) == 0 || bars[len(bars)-1].Close.IsZero() {
		return decimal.Zero, ErrNoPrice
	}
	return bars[len(bars)-1].Close, nil
}

func (c *Client) aggs(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	params := polygonmodels.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   polygonmodels.Day,
		From:       polygonmodels.Millis(from),
		To:         polygonmodels.Millis(to),
	}.WithLimit(50000)

	iter := c.api.ListAggs(ctx, params)

	var bars []models.PriceBar
	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, models.PriceBar{
			Date:   models.Date(time.Time(agg.Timestamp).In(c.loc)),
			Open:   decimal.NewFromFloat(agg.Open),
			High:   decimal.NewFromFloat(agg.High),
			Low:    decimal.NewFromFloat(agg.Low),
			Close:  decimal.NewFromFloat(agg.Close),
			Volume: int64(agg.Volume),
		})
	}
	if iter.Err() != nil {
		return nil, fmt.Errorf("error iterating polygon aggregates: %w", iter.Err())
	}
	return bars, nil
}

// dividend is a polygon dividend with its dates resolved.
type dividend struct {
	exDate    time.Time
	payDate   time.Time
	amount    decimal.Decimal
	frequency int64
}

// toDividend converts a polygon dividend. A missing pay date falls back to
// the ex-dividend date; a dividend with neither is dropped.
func toDividend(item polygonmodels.Dividend) (dividend, bool) {
	d := dividend{
		amount:    decimal.NewFromFloat(item.CashAmount),
		frequency: item.Frequency,
	}
	if ex, ok := parseDate(item.ExDividendDate); ok {
		d.exDate = ex
	}
	if pay := time.Time(item.PayDate); pay.Year() > 1 {
		d.payDate = models.Date(pay)
	} else {
		d.payDate = d.exDate
	}
	return d, !d.payDate.IsZero()
}

func (c *Client) dividends(ctx context.Context, symbol string) ([]dividend, error) {
	iter := c.api.ListDividends(ctx, polygonmodels.ListDividendsParams{}.WithTicker(polygonmodels.EQ, symbol))

	var out []dividend
	for iter.Next() {
		if d, ok := toDividend(iter.Item()); ok {
			out = append(out, d)
		}
	}
	if iter.Err() != nil {
		return nil, fmt.Errorf("error iterating polygon dividends: %w", iter.Err())
	}
	return out, nil
}

func parseDate(s string) (time.Time, bool) {
	if len(s) < len(models.DateFormat) {
		return time.Time{}, false
	}
	t, err := time.Parse(models.DateFormat, s[:len(models.DateFormat)])
	if err != nil || t.Year() <= 1 {
		return time.Time{}, false
	}
	return t, true
}
