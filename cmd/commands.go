package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"divcompiler/internal/compiler"
	"divcompiler/internal/provider"
	"divcompiler/internal/provider/polygon"
	"divcompiler/internal/provider/yahoo"
	"divcompiler/internal/tui"
	"divcompiler/internal/universe"
	"divcompiler/internal/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

var errNoSelection = errors.New("no symbols selected: use --sector, --all, --file or pass tickers")

type providerFactory func(config *utils.Config, logger *utils.Logger) (provider.Provider, error)

// newProvider builds the provider named in the configuration.
func newProvider(config *utils.Config, logger *utils.Logger) (provider.Provider, error) {
	switch config.Provider.Name {
	case "yahoo":
		yc := config.Provider.Yahoo
		hc := yahoo.NewRLClient(config.RequestTimeout(), config.Provider.RateLimit, config.Provider.Burst)

		var session yahoo.Session
		if yc.Browser.Enabled {
			logger.Debug("Using Chrome to negotiate the Yahoo session")
			session = yahoo.NewBrowserSession(hc, yahoo.BrowserOptions{
				BaseURL:   yc.BaseURL,
				UserAgent: yc.UserAgent,
				Headless:  yc.Browser.Headless,
				Debug:     yc.Browser.Debug,
			}, logger)
		} else {
			session = yahoo.NewHTTPSession(hc, yc.BaseURL, yc.CookieURL, yc.UserAgent, logger)
		}

		return yahoo.NewClient(hc, session,
			yahoo.BaseURL(yc.BaseURL),
			yahoo.UserAgent(yc.UserAgent),
			yahoo.WithLogger(logger),
		), nil
	case "polygon":
		return polygon.NewClient(config.Provider.Polygon.APIKey, logger)
	}
	return nil, fmt.Errorf("unknown provider %q", config.Provider.Name)
}

// env is everything a command needs after flags and config are resolved.
type env struct {
	config   *utils.Config
	logger   *utils.Logger
	universe *universe.Universe
}

func (e *env) Close() {
	_ = e.logger.Close()
}

func loadEnv(cmd *cli.Command) (*env, error) {
	path := cmd.String("config")
	config, err := utils.ReadConfig(path, !cmd.IsSet("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.IsSet("provider") {
		config.Provider.Name = cmd.String("provider")
	}
	if cmd.IsSet("log-level") {
		config.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("workers") {
		config.Export.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("progress") {
		config.Export.Progress = cmd.Bool("progress")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	u := universe.Default()
	if len(config.Sectors) > 0 {
		sectors := make([]universe.Sector, 0, len(config.Sectors))
		for _, s := range config.Sectors {
			sectors = append(sectors, universe.Sector{Key: s.Key, Symbols: s.Symbols})
		}
		if u, err = universe.New(sectors); err != nil {
			return nil, fmt.Errorf("invalid sectors in configuration: %w", err)
		}
	}

	logger, err := utils.NewLogger(config.Log.Level, config.Log.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &env{config: config, logger: logger, universe: u}, nil
}

// resolveSymbols unions sectors, the ticker file and positional tickers in
// that order.
func resolveSymbols(cmd *cli.Command, u *universe.Universe) ([]string, error) {
	var lists [][]string

	if cmd.Bool("all") {
		lists = append(lists, u.Symbols())
	}
	if sectors := cmd.StringSlice("sector"); len(sectors) > 0 {
		symbols, err := u.Expand(sectors)
		if err != nil {
			return nil, err
		}
		lists = append(lists, symbols)
	}
	if file := cmd.String("file"); file != "" {
		tickers, err := utils.ReadTickersFromCSV(file)
		if err != nil {
			return nil, fmt.Errorf("error reading CSV file %s: %w", file, err)
		}
		lists = append(lists, tickers)
	}
	lists = append(lists, cmd.Args().Slice())

	symbols := universe.Union(lists...)
	if len(symbols) == 0 {
		return nil, errNoSelection
	}
	return symbols, nil
}

func newCompiler(e *env, p provider.Provider) *compiler.Compiler {
	opts := []compiler.Option{
		compiler.Workers(e.config.Export.Workers),
	}
	if e.config.Export.Progress {
		opts = append(opts, compiler.Progress(os.Stderr))
	}
	return compiler.New(p, e.logger, opts...)
}

func run(ctx context.Context, e *env, factory providerFactory, req compiler.Request) error {
	startTime := time.Now()
	e.logger.Info("Starting %s for %d symbols", req.Mode, len(req.Symbols))

	p, err := factory(e.config, e.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}

	c := newCompiler(e, p)
	if err := c.Run(ctx, req); err != nil {
		return err
	}

	e.logger.Info("Aggregate Performance Report:\n%s", c.GetPerformanceTracker().GenerateAggregateReport())
	e.logger.Info("Total execution time: %v", time.Since(startTime).Round(time.Millisecond))
	return nil
}

func modeAction(mode compiler.Mode, factory providerFactory) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		symbols, err := resolveSymbols(cmd, e.universe)
		if err != nil {
			return err
		}

		req := compiler.Request{
			Mode:    mode,
			Symbols: symbols,
			Output:  e.config.Export.Output,
			Period:  e.config.Export.Period,
			Writer:  cmd.Root().Writer,
		}
		if cmd.IsSet("output") {
			req.Output = cmd.String("output")
		}
		if cmd.IsSet("period") {
			req.Period = int(cmd.Int("period"))
		}
		return run(ctx, e, factory, req)
	}
}

func sectorsAction(ctx context.Context, cmd *cli.Command) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	w := cmd.Root().Writer
	for _, s := range e.universe.Sectors() {
		fmt.Fprintf(w, "%s (%s): %s\n", s.Name, s.Key, strings.Join(s.Symbols, " "))
	}
	return nil
}

func pickAction(factory providerFactory) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		program := tea.NewProgram(tui.NewModel(e.universe, e.config.Export.Output), tea.WithContext(ctx))
		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("interactive form: %w", err)
		}
		res, ok := final.(tui.Model).Result()
		if !ok {
			e.logger.Info("Aborted")
			return nil
		}

		return run(ctx, e, factory, compiler.Request{
			Mode:    res.Mode,
			Symbols: res.Symbols,
			Output:  res.Output,
			Period:  e.config.Export.Period,
			Writer:  cmd.Root().Writer,
		})
	}
}

func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "sector",
			Aliases: []string{"s"},
			Usage:   "Include every symbol of a sector (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Include every symbol of every sector",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "CSV file whose first column lists tickers",
		},
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Destination CSV file",
		Value:   compiler.DefaultOutput,
	}
}

func newApp(stdout io.Writer, factory providerFactory) *cli.Command {
	return &cli.Command{
		Name:      "divcompiler",
		Usage:     "Compile dividend data for TSX tickers",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration",
				Value:   utils.DefaultConfigPath,
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Market data provider (yahoo, polygon)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Symbols fetched concurrently",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar while exporting",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "display",
				Usage:     "Print dividend data to the console",
				ArgsUsage: "[TICKER...]",
				Flags:     selectionFlags(),
				Action:    modeAction(compiler.ModeDisplay, factory),
			},
			{
				Name:      "export",
				Usage:     "Write a dividend summary CSV",
				ArgsUsage: "[TICKER...]",
				Flags:     append(selectionFlags(), outputFlag()),
				Action:    modeAction(compiler.ModeExport, factory),
			},
			{
				Name:      "export-ohlc",
				Usage:     "Write daily prices around the most recent dividend to CSV",
				ArgsUsage: "[TICKER...]",
				Flags: append(selectionFlags(), outputFlag(), &cli.IntFlag{
					Name:  "period",
					Usage: "Days on each side of the last payment",
					Value: compiler.DefaultPeriod,
				}),
				Action: modeAction(compiler.ModeExportOHLC, factory),
			},
			{
				Name:   "sectors",
				Usage:  "List the sectors and their symbols",
				Action: sectorsAction,
			},
			{
				Name:   "pick",
				Usage:  "Choose mode, symbols and output interactively",
				Action: pickAction(factory),
			},
		},
	}
}
