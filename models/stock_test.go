package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastDividend(t *testing.T) {
	t.Run("returns the most recent payment", func(t *testing.T) {
		r := &TickerRecord{
			Dividends: []Dividend{
				{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("0.30")},
				{Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("0.30")},
			},
		}

		d, err := r.LastDividend()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d.Date)
	})

	t.Run("empty history", func(t *testing.T) {
		_, err := (&TickerRecord{}).LastDividend()
		assert.ErrorIs(t, err, ErrNoDividends)
	})

	t.Run("nil record", func(t *testing.T) {
		var r *TickerRecord
		_, err := r.LastDividend()
		assert.ErrorIs(t, err, ErrNoDividends)
	})
}

func TestDisplaySymbol(t *testing.T) {
	assert.Equal(t, "RY.TO", (&TickerRecord{Symbol: "RY.TO"}).DisplaySymbol("ry.to"))
	assert.Equal(t, "ry.to", (&TickerRecord{}).DisplaySymbol("ry.to"))
}

func TestDate(t *testing.T) {
	toronto := time.FixedZone("EDT", -4*3600)
	got := Date(time.Date(2024, 6, 1, 23, 30, 0, 0, toronto))
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got)
}
