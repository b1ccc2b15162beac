package tui

import (
	"bytes"
	"testing"
	"time"

	"divcompiler/internal/compiler"
	"divcompiler/internal/universe"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUniverse(t *testing.T) *universe.Universe {
	u, err := universe.New([]universe.Sector{
		{Key: "energy", Symbols: []string{"ENB.TO", "SU.TO", "TRP.TO"}},
		{Key: "utilities", Symbols: []string{"FTS.TO", "H.TO"}},
	})
	require.NoError(t, err)
	return u
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m tea.Model, keys ...string) Model {
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m.(Model)
}

func TestNewModel(t *testing.T) {
	m := NewModel(testUniverse(t), "")

	assert.Equal(t, StateModeSelect, m.state)
	assert.Equal(t, compiler.DefaultOutput, m.output)
	assert.Len(t, m.rows, 7)
	assert.Empty(t, m.Symbols())

	_, ok := m.Result()
	assert.False(t, ok)
}

func TestSectorToggle(t *testing.T) {
	m := NewModel(testUniverse(t), "out.csv")
	m.state = StateSymbolSelect

	// Header of the first sector selects all of it.
	m = send(m, "space")
	assert.Equal(t, []string{"ENB.TO", "SU.TO", "TRP.TO"}, m.Symbols())
	assert.Equal(t, checkAll, m.sectorState(0))

	// Deselecting one symbol leaves the sector partially selected.
	m = send(m, "down", "space")
	assert.Equal(t, []string{"SU.TO", "TRP.TO"}, m.Symbols())
	assert.Equal(t, checkSome, m.sectorState(0))

	// Toggling a partial sector selects the rest.
	m = send(m, "k", "space")
	assert.Equal(t, checkAll, m.sectorState(0))

	m = send(m, "space")
	assert.Empty(t, m.Symbols())
}

func TestToggleAll(t *testing.T) {
	m := NewModel(testUniverse(t), "out.csv")
	m.state = StateSymbolSelect

	m = send(m, "a")
	assert.Equal(t, []string{"ENB.TO", "SU.TO", "TRP.TO", "FTS.TO", "H.TO"}, m.Symbols())

	m = send(m, "a")
	assert.Empty(t, m.Symbols())
}

func TestEnterWithoutSelectionShowsError(t *testing.T) {
	m := NewModel(testUniverse(t), "out.csv")
	m.state = StateSymbolSelect
	m.mode = compiler.ModeExport

	m = send(m, "enter")
	assert.Equal(t, StateSymbolSelect, m.state)
	assert.Contains(t, m.View(), "Select at least one symbol")
}

func TestEscGoesBack(t *testing.T) {
	m := NewModel(testUniverse(t), "out.csv")
	m.state = StateOutputInput

	m = send(m, "esc")
	assert.Equal(t, StateSymbolSelect, m.state)
	m = send(m, "esc")
	assert.Equal(t, StateModeSelect, m.state)
}

func TestQDoesNotQuitWhileTypingPath(t *testing.T) {
	m := NewModel(testUniverse(t), "")
	m.state = StateOutputInput
	m.outputInput.Focus()
	m.outputInput.SetValue("")

	next := send(m, "q")
	assert.False(t, next.aborted)
	assert.Equal(t, StateOutputInput, next.state)
	assert.Equal(t, "q", next.outputInput.Value())
}

func TestExportFlow(t *testing.T) {
	m := NewModel(testUniverse(t), "dividends.csv")
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 30))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("export-ohlc"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(key("down"))
	tm.Send(key("enter"))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Select Symbols (export)"))
	}, teatest.WithDuration(2*time.Second))

	// Select the utilities sector.
	for range 4 {
		tm.Send(key("down"))
	}
	tm.Send(key("space"))
	tm.Send(key("enter"))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Output File"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(key("enter"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	res, ok := final.Result()
	require.True(t, ok)
	assert.Equal(t, compiler.ModeExport, res.Mode)
	assert.Equal(t, []string{"FTS.TO", "H.TO"}, res.Symbols)
	assert.Equal(t, "dividends.csv", res.Output)
}

func TestDisplayFlowSkipsOutput(t *testing.T) {
	m := NewModel(testUniverse(t), "")
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 30))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("display"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(key("enter"))
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Select Symbols (display)"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(key("a"))
	tm.Send(key("enter"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	res, ok := tm.FinalModel(t).(Model).Result()
	require.True(t, ok)
	assert.Equal(t, compiler.ModeDisplay, res.Mode)
	assert.Len(t, res.Symbols, 5)
}

func TestQuitAborts(t *testing.T) {
	m := NewModel(testUniverse(t), "")
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 30))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Select Mode"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(key("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	_, ok := tm.FinalModel(t).(Model).Result()
	assert.False(t, ok)
}
