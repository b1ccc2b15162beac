// Package provider defines the market-data source used by the compiler.
package provider

import (
	"context"
	"time"

	"divcompiler/models"
)

// Provider fetches per-symbol dividend records and daily price history.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Record returns the dividend metadata and payment history of symbol.
	Record(ctx context.Context, symbol string) (*models.TickerRecord, error)
	// History returns the daily bars of symbol with dates in [start, end).
	History(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error)
}
