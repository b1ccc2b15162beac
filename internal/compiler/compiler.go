// Package compiler turns provider records into console output and CSV files.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"divcompiler/internal/provider"
	"divcompiler/internal/utils"
	"divcompiler/models"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultOutput is the destination used when a request names none.
const DefaultOutput = "data.csv"

// Mode selects one of the three operations.
type Mode string

const (
	ModeDisplay    Mode = "display"
	ModeExport     Mode = "export"
	ModeExportOHLC Mode = "export-ohlc"
)

// Modes lists every mode in menu order.
var Modes = []Mode{ModeDisplay, ModeExport, ModeExportOHLC}

var (
	ErrUnknownMode = errors.New("unknown mode")
	ErrNoSymbols   = errors.New("no symbols selected")
)

// ParseMode matches s case-insensitively against Modes.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Description is the one-line summary shown in the interactive menu.
func (m Mode) Description() string {
	switch m {
	case ModeDisplay:
		return "Print dividend data to the console"
	case ModeExport:
		return "Write a dividend summary CSV"
	case ModeExportOHLC:
		return "Write daily prices around the last dividend to CSV"
	}
	return ""
}

// WritesFile reports whether the mode needs an output path.
func (m Mode) WritesFile() bool {
	return m == ModeExport || m == ModeExportOHLC
}

// Request is one invocation of the compiler.
type Request struct {
	Mode    Mode
	Symbols []string
	// Output is the CSV destination; ignored by ModeDisplay.
	Output string
	// Period is only used by ModeExportOHLC.
	Period int
	// Writer receives display output; defaults to os.Stdout.
	Writer io.Writer
}

type Compiler struct {
	provider provider.Provider
	logger   *utils.Logger
	workers  int
	progress io.Writer
	tracker  *utils.PerformanceTracker
	printer  *message.Printer
}

type Option func(*Compiler)

// Workers sets how many symbols are fetched concurrently. Output order is
// unaffected.
func Workers(n int) Option {
	return func(c *Compiler) {
		c.workers = n
	}
}

// Progress draws a progress bar on w while exporting.
func Progress(w io.Writer) Option {
	return func(c *Compiler) {
		c.progress = w
	}
}

// New returns a sequential compiler over p. A nil logger discards output.
func New(p provider.Provider, logger *utils.Logger, opts ...Option) *Compiler {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	c := &Compiler{
		provider: p,
		logger:   logger,
		workers:  1,
		tracker:  utils.NewPerformanceTracker(),
		printer:  message.NewPrinter(language.English),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run dispatches req to the matching operation.
func (c *Compiler) Run(ctx context.Context, req Request) error {
	if len(req.Symbols) == 0 {
		return ErrNoSymbols
	}
	output := req.Output
	if output == "" {
		output = DefaultOutput
	}

	switch req.Mode {
	case ModeDisplay:
		w := req.Writer
		if w == nil {
			w = os.Stdout
		}
		return c.DisplayData(ctx, w, req.Symbols)
	case ModeExport:
		return c.ExportToCSV(ctx, output, req.Symbols)
	case ModeExportOHLC:
		return c.ExportOHLCToCSV(ctx, output, req.Symbols, req.Period)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
}

// GetPerformanceTracker returns the tracker timing every provider call.
func (c *Compiler) GetPerformanceTracker() *utils.PerformanceTracker {
	return c.tracker
}

func (c *Compiler) record(ctx context.Context, symbol string) (*models.TickerRecord, error) {
	defer c.tracker.StartStep("record fetch")()
	return c.provider.Record(ctx, symbol)
}

func (c *Compiler) history(ctx context.Context, symbol string, w Window) ([]models.PriceBar, error) {
	defer c.tracker.StartStep("history fetch")()
	return c.provider.History(ctx, symbol, w.Start, w.End)
}

func (c *Compiler) fetchSummary(ctx context.Context, symbol string) (models.DividendSummary, error) {
	record, err := c.record(ctx, symbol)
	if err != nil {
		return models.DividendSummary{}, err
	}
	return summarize(symbol, record)
}

// report logs how many symbols of an operation succeeded.
func (c *Compiler) report(op string, ok, total int) {
	c.logger.Info("%s finished: %s of %s symbols succeeded", op, c.printer.Sprintf("%d", ok), c.printer.Sprintf("%d", total))
}

type bar struct {
	pb *progressbar.ProgressBar
}

func (c *Compiler) newBar(total int, description string) *bar {
	if c.progress == nil {
		return &bar{}
	}
	return &bar{pb: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	)}
}

func (b *bar) step() {
	if b.pb != nil {
		_ = b.pb.Add(1)
	}
}

func (b *bar) finish() {
	if b.pb != nil {
		_ = b.pb.Finish()
	}
}
