package compiler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"divcompiler/models"
)

// ErrUnavailable is matched by every per-symbol failure.
var ErrUnavailable = errors.New("data unavailable")

// SymbolError reports why one symbol was skipped. The batch it belongs to
// always continues.
type SymbolError struct {
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Symbol, e.Err)
}

func (e *SymbolError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

func unavailable(symbol string, err error) error {
	var se *SymbolError
	if errors.As(err, &se) && se.Symbol == symbol {
		return err
	}
	return &SymbolError{Symbol: symbol, Err: err}
}

// Result is the outcome of one symbol: either Value or Err is meaningful.
type Result[T any] struct {
	Symbol string
	Value  T
	Err    error
}

// collect runs fn for every symbol and yields the results in input order.
// With one worker each symbol is fetched only when the consumer asks for it.
// More workers fetch ahead while the consumer still sees input order.
// Iteration stops early when ctx is done; callers check ctx.Err afterwards.
func collect[T any](ctx context.Context, symbols []string, workers int, fn func(context.Context, string) (T, error)) iter.Seq[Result[T]] {
	run := func(ctx context.Context, symbol string) Result[T] {
		v, err := fn(ctx, symbol)
		if err != nil {
			return Result[T]{Symbol: symbol, Err: unavailable(symbol, err)}
		}
		return Result[T]{Symbol: symbol, Value: v}
	}

	if workers <= 1 || len(symbols) <= 1 {
		return func(yield func(Result[T]) bool) {
			for _, symbol := range symbols {
				if ctx.Err() != nil {
					return
				}
				if !yield(run(ctx, symbol)) {
					return
				}
			}
		}
	}

	return func(yield func(Result[T]) bool) {
		ctx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		defer func() {
			cancel()
			wg.Wait()
		}()

		slots := make([]chan Result[T], len(symbols))
		for i := range slots {
			slots[i] = make(chan Result[T], 1)
		}

		jobs := make(chan int)
		go func() {
			defer close(jobs)
			for i := range symbols {
				select {
				case jobs <- i:
				case <-ctx.Done():
					return
				}
			}
		}()

		for range min(workers, len(symbols)) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					slots[i] <- run(ctx, symbols[i])
				}
			}()
		}

		for i := range symbols {
			select {
			case r := <-slots[i]:
				if !yield(r) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

// summarize extracts the dividend fields shared by the display and CSV
// output. A missing field or an empty dividend history fails the symbol.
func summarize(symbol string, record *models.TickerRecord) (models.DividendSummary, error) {
	if record == nil {
		return models.DividendSummary{}, errors.New("no record")
	}
	yield, err := record.DividendYield.Take()
	if err != nil {
		return models.DividendSummary{}, errors.New("missing dividend yield")
	}
	rate, err := record.DividendRate.Take()
	if err != nil {
		return models.DividendSummary{}, errors.New("missing dividend rate")
	}
	exDate, err := record.ExDividendDate.Take()
	if err != nil {
		return models.DividendSummary{}, errors.New("missing ex-dividend date")
	}
	last, err := record.LastDividend()
	if err != nil {
		return models.DividendSummary{}, err
	}
	return models.DividendSummary{
		Symbol:         record.DisplaySymbol(symbol),
		LongName:       record.LongName,
		Currency:       record.Currency,
		DividendYield:  yield,
		DividendRate:   rate,
		ExDividendDate: exDate,
		LastPayment:    last.Date,
	}, nil
}
