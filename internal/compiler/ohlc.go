package compiler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"divcompiler/models"
)

var ohlcHeader = []string{"Date", "Ticker", "Open", "High", "Low", "Close", "Volume", "Dividends", "Stock Splits"}

var errEmptyWindow = errors.New("no price bars in window")

// ExportOHLCToCSV writes the daily bars around each symbol's most recent
// dividend payment, grouped by symbol in input order. Rows are flushed after
// every symbol so a later failure leaves earlier rows in place.
func (c *Compiler) ExportOHLCToCSV(ctx context.Context, path string, symbols []string, period int) (err error) {
	if period < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePeriod, period)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close CSV file: %w", cerr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(ohlcHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	writer.Flush()

	fetch := func(ctx context.Context, symbol string) ([]models.PriceBar, error) {
		return c.windowBars(ctx, symbol, period)
	}

	progress := c.newBar(len(symbols), "Exporting OHLC")
	ok, rows := 0, 0
	for res := range collect(ctx, symbols, c.workers, fetch) {
		progress.step()
		if res.Err != nil {
			c.logger.Error("Skipping %v", res.Err)
			continue
		}
		for _, bar := range res.Value {
			if err := writer.Write(ohlcRow(res.Symbol, bar)); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		c.logger.Debug("Wrote %d bars for %s", len(res.Value), res.Symbol)
		ok++
		rows += len(res.Value)
	}
	progress.finish()

	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Info("Successfully saved %s price rows to %s", c.printer.Sprintf("%d", rows), path)
	c.report("OHLC export", ok, len(symbols))
	return nil
}

// windowBars fetches the bars within period days of the last payment.
func (c *Compiler) windowBars(ctx context.Context, symbol string, period int) ([]models.PriceBar, error) {
	record, err := c.record(ctx, symbol)
	if err != nil {
		return nil, err
	}
	last, err := record.LastDividend()
	if err != nil {
		return nil, err
	}
	window, err := DividendWindow(last.Date, period)
	if err != nil {
		return nil, err
	}

	bars, err := c.history(ctx, symbol, window)
	if err != nil {
		return nil, err
	}

	inside := bars[:0:0]
	for _, bar := range bars {
		if window.Contains(bar.Date) {
			inside = append(inside, bar)
		}
	}
	if len(inside) == 0 {
		return nil, fmt.Errorf("%w %s", errEmptyWindow, window)
	}
	return inside, nil
}

func ohlcRow(symbol string, bar models.PriceBar) []string {
	return []string{
		bar.Date.Format(models.DateFormat),
		symbol,
		bar.Open.String(),
		bar.High.String(),
		bar.Low.String(),
		bar.Close.String(),
		strconv.FormatInt(bar.Volume, 10),
		bar.Dividends.String(),
		bar.StockSplits.String(),
	}
}
