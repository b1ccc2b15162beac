package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"divcompiler/internal/compiler"
	"divcompiler/internal/provider"
	"divcompiler/internal/universe"
	"divcompiler/internal/utils"
	"divcompiler/mocks"
	"divcompiler/models"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type CommandsTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockProvider
	dir      string
	config   string
	stdout   *bytes.Buffer
}

func TestCommandsSuite(t *testing.T) {
	suite.Run(t, new(CommandsTestSuite))
}

func (s *CommandsTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.provider = mocks.NewMockProvider(s.ctrl)
	s.dir = s.T().TempDir()
	s.stdout = &bytes.Buffer{}
	s.config = s.writeConfig(`
log:
  level: error
  dir: ""
`)
}

func (s *CommandsTestSuite) writeConfig(content string) string {
	path := filepath.Join(s.dir, "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0644))
	return path
}

func (s *CommandsTestSuite) run(args ...string) error {
	factory := func(*utils.Config, *utils.Logger) (provider.Provider, error) {
		return s.provider, nil
	}
	argv := append([]string{"divcompiler", "--config", s.config}, args...)
	return newApp(s.stdout, factory).Run(context.Background(), argv)
}

func (s *CommandsTestSuite) TestSectors() {
	s.Require().NoError(s.run("sectors"))

	out := s.stdout.String()
	s.Contains(out, "Materials (materials): AEM.TO ABX.TO")
	s.Contains(out, "Real Estate (real-estate): CAR.UN.TO FSV.TO\n")
	s.Contains(out, "Utilities (utilities): AQN.TO BIP.UN.TO EMA.TO FTS.TO H.TO\n")
}

func (s *CommandsTestSuite) TestSectorsFromConfig() {
	s.config = s.writeConfig(`
log:
  level: error
  dir: ""
sectors:
  - key: banks
    symbols: [ry.to, TD.TO]
`)
	s.Require().NoError(s.run("sectors"))
	s.Equal("Banks (banks): RY.TO TD.TO\n", s.stdout.String())
}

func (s *CommandsTestSuite) TestExportUnionsSelectionInOrder() {
	tickers := filepath.Join(s.dir, "tickers.csv")
	s.Require().NoError(os.WriteFile(tickers, []byte("Symbol\nENB.TO\nFSV.TO\n"), 0644))

	gomock.InOrder(
		s.provider.EXPECT().Record(gomock.Any(), "CAR.UN.TO").Return(nil, errors.New("offline")),
		s.provider.EXPECT().Record(gomock.Any(), "FSV.TO").Return(nil, errors.New("offline")),
		s.provider.EXPECT().Record(gomock.Any(), "ENB.TO").Return(nil, errors.New("offline")),
		s.provider.EXPECT().Record(gomock.Any(), "RY.TO").Return(nil, errors.New("offline")),
	)

	out := filepath.Join(s.dir, "out.csv")
	err := s.run("export", "-s", "real-estate", "-f", tickers, "-o", out, "ry.to", "ENB.TO")
	s.Require().NoError(err)

	data, err := os.ReadFile(out)
	s.Require().NoError(err)
	s.Equal("Symbol,Div Yield,Div Pay Date,Ex-Div Date\n", string(data))
}

func (s *CommandsTestSuite) TestDisplayWritesToStdout() {
	s.provider.EXPECT().Record(gomock.Any(), "RY.TO").Return(&models.TickerRecord{Symbol: "RY.TO"}, nil)

	s.Require().NoError(s.run("display", "RY.TO"))
	s.Equal("The data for the symbol RY.TO could not be successfully fetched.\n", s.stdout.String())
}

func (s *CommandsTestSuite) TestExportOHLCRejectsNegativePeriod() {
	err := s.run("export-ohlc", "--period=-1", "-o", filepath.Join(s.dir, "ohlc.csv"), "RY.TO")
	s.Error(err)
}

func (s *CommandsTestSuite) TestEmptySelection() {
	err := s.run("display")
	s.ErrorIs(err, errNoSelection)
}

func (s *CommandsTestSuite) TestUnknownSector() {
	err := s.run("display", "-s", "crypto")
	s.ErrorContains(err, "unknown sector")
}

func (s *CommandsTestSuite) TestMissingExplicitConfig() {
	s.config = filepath.Join(s.dir, "nope.yaml")
	err := s.run("sectors")
	s.ErrorContains(err, "failed to load configuration")
}

func (s *CommandsTestSuite) TestInvalidOverride() {
	err := s.run("--workers", "0", "sectors")
	s.ErrorContains(err, "invalid config")
}

func (s *CommandsTestSuite) TestProviderOverrideAppliesBeforeValidation() {
	s.T().Setenv("POLYGON_API_KEY", "")
	s.config = s.writeConfig(`
provider:
  name: polygon
log:
  level: error
  dir: ""
`)
	s.ErrorContains(s.run("sectors"), "invalid config")

	s.stdout.Reset()
	s.Require().NoError(s.run("--provider", "yahoo", "sectors"))
	s.Contains(s.stdout.String(), "Utilities (utilities)")
}

func (s *CommandsTestSuite) TestRunLogsPerformanceReport() {
	core, logs := observer.New(zapcore.InfoLevel)
	e := &env{
		config:   utils.DefaultConfig(),
		logger:   utils.NewLoggerFromZap(zap.New(core)),
		universe: universe.Default(),
	}
	factory := func(*utils.Config, *utils.Logger) (provider.Provider, error) {
		return s.provider, nil
	}
	s.provider.EXPECT().Record(gomock.Any(), "RY.TO").Return(nil, errors.New("offline"))

	var out bytes.Buffer
	err := run(context.Background(), e, factory, compiler.Request{
		Mode:    compiler.ModeDisplay,
		Symbols: []string{"RY.TO"},
		Writer:  &out,
	})
	s.Require().NoError(err)

	reports := logs.FilterMessageSnippet("Aggregate Performance Report")
	s.Require().Equal(1, reports.Len())
	s.Contains(reports.All()[0].Message, "record fetch")
	s.Equal(1, logs.FilterMessageSnippet("Total execution time").Len())
}

func (s *CommandsTestSuite) TestNewProvider() {
	config := utils.DefaultConfig()
	logger := utils.NewNopLogger()

	p, err := newProvider(config, logger)
	s.Require().NoError(err)
	s.NotNil(p)

	config.Provider.Yahoo.Browser.Enabled = true
	p, err = newProvider(config, logger)
	s.Require().NoError(err)
	s.NotNil(p)

	config.Provider.Name = "polygon"
	_, err = newProvider(config, logger)
	s.Error(err)

	config.Provider.Polygon.APIKey = "key"
	p, err = newProvider(config, logger)
	s.Require().NoError(err)
	s.NotNil(p)

	config.Provider.Name = "bloomberg"
	_, err = newProvider(config, logger)
	s.Error(err)
}
