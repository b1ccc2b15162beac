// Package models defines the data structures used in the application.
package models

import (
	"errors"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// DateFormat is the calendar date layout used for every date written or printed.
const DateFormat = "2006-01-02"

// ErrNoDividends is returned when a record carries no dividend history.
var ErrNoDividends = errors.New("no dividend history")

// TickerRecord is the per-symbol bundle returned by a data provider.
// It lives for the duration of one display or export call.
type TickerRecord struct {
	Symbol   string
	LongName string
	Currency string

	// DividendYield is expressed in percent: 3.5 means 3.5%.
	DividendYield  optional.Option[decimal.Decimal]
	DividendRate   optional.Option[decimal.Decimal]
	ExDividendDate optional.Option[time.Time]

	// Dividends is ordered oldest first.
	Dividends []Dividend
}

// Dividend is a single paid dividend.
type Dividend struct {
	Date   time.Time
	Amount decimal.Decimal
}

// PriceBar is one daily OHLC bar.
type PriceBar struct {
	Date        time.Time
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      int64
	Dividends   decimal.Decimal
	StockSplits decimal.Decimal
}

// LastDividend returns the most recent dividend payment.
func (r *TickerRecord) LastDividend() (Dividend, error) {
	if r == nil || len(r.Dividends) == 0 {
		return Dividend{}, ErrNoDividends
	}
	return r.Dividends[len(r.Dividends)-1], nil
}

// DisplaySymbol returns the symbol reported by the provider, or fallback when
// the provider left it empty.
func (r *TickerRecord) DisplaySymbol(fallback string) string {
	if r == nil || r.Symbol == "" {
		return fallback
	}
	return r.Symbol
}

// DividendSummary is a fully populated view of a TickerRecord.
type DividendSummary struct {
	Symbol         string
	LongName       string
	Currency       string
	DividendYield  decimal.Decimal
	DividendRate   decimal.Decimal
	ExDividendDate time.Time
	LastPayment    time.Time
}

// Date truncates t to its calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
