package compiler

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"divcompiler/models"
)

var summaryHeader = []string{"Symbol", "Div Yield", "Div Pay Date", "Ex-Div Date"}

// ExportToCSV writes one summary row per symbol whose data is complete.
// Failed symbols are logged and left out; the header is always written.
func (c *Compiler) ExportToCSV(ctx context.Context, path string, symbols []string) (err error) {
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
	if err := writer.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	progress := c.newBar(len(symbols), "Exporting")
	ok := 0
	for res := range collect(ctx, symbols, c.workers, c.fetchSummary) {
		progress.step()
		if res.Err != nil {
			c.logger.Error("Skipping %v", res.Err)
			continue
		}
		if err := writer.Write(summaryRow(res.Value)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		ok++
	}
	progress.finish()

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Info("Successfully saved data to %s", path)
	c.report("Export", ok, len(symbols))
	return nil
}

func summaryRow(s models.DividendSummary) []string {
	return []string{
		s.Symbol,
		fmt.Sprintf("%s (%s%%)", s.DividendRate.String(), s.DividendYield.String()),
		s.LastPayment.Format(models.DateFormat),
		s.ExDividendDate.UTC().Format(models.DateFormat),
	}
}
