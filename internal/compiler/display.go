package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"divcompiler/models"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DisplayData prints one block per symbol in input order. A symbol whose
// data is incomplete prints a single notice line instead. Only cancellation
// and write failures are returned.
func (c *Compiler) DisplayData(ctx context.Context, w io.Writer, symbols []string) error {
	ok := 0
	for res := range collect(ctx, symbols, c.workers, c.fetchSummary) {
		text, err := displayBlock(res)
		if err != nil {
			c.logger.Error("Skipping %v", err)
			text = fmt.Sprintf("The data for the symbol %s could not be successfully fetched.\n", res.Symbol)
		} else {
			ok++
		}
		if _, err := io.WriteString(w, text); err != nil {
			return fmt.Errorf("write display output: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.report("Display", ok, len(symbols))
	return nil
}

func displayBlock(res Result[models.DividendSummary]) (string, error) {
	if res.Err != nil {
		return "", res.Err
	}
	s := res.Value
	if s.LongName == "" {
		return "", unavailable(res.Symbol, errors.New("missing long name"))
	}
	if s.Currency == "" {
		return "", unavailable(res.Symbol, errors.New("missing currency"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", s.LongName, s.Symbol)
	fmt.Fprintf(&b, "Dividend Yield: %s%%\n", s.DividendYield.String())
	fmt.Fprintf(&b, "Dividend Rate: %s %s\n", formatAmount(s.DividendRate, s.Currency), s.Currency)
	fmt.Fprintf(&b, "Ex-Dividend Date: %s\n", s.ExDividendDate.UTC().Format(models.DateFormat))
	fmt.Fprintf(&b, "Last Dividend Date: %s\n", s.LastPayment.Format(models.DateFormat))
	b.WriteString("\n")
	return b.String(), nil
}

// formatAmount renders amount with the currency's symbol and minor units,
// falling back to the bare decimal for unknown currency codes.
func formatAmount(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.String()
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}
