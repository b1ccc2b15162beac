// Package tui is the interactive form behind the pick command: a mode list,
// a sector-grouped symbol picker and an output path field.
package tui

import (
	"strings"

	"divcompiler/internal/compiler"
	"divcompiler/internal/universe"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Application states.
const (
	StateModeSelect = iota
	StateSymbolSelect
	StateOutputInput
	StateDone
)

// Result is what the user picked.
type Result struct {
	Mode    compiler.Mode
	Symbols []string
	Output  string
}

// row is one line of the symbol picker: a sector header when symbol is -1.
type row struct {
	sector int
	symbol int
}

type Model struct {
	state       int
	modeList    list.Model
	outputInput textinput.Model
	sectors     []universe.Sector
	rows        []row
	cursor      int
	offset      int
	selected    map[string]bool
	mode        compiler.Mode
	output      string
	err         string
	aborted     bool
	width       int
	height      int
}

func NewModel(u *universe.Universe, defaultOutput string) Model {
	if defaultOutput == "" {
		defaultOutput = compiler.DefaultOutput
	}
	sectors := u.Sectors()
	var rows []row
	for i, s := range sectors {
		rows = append(rows, row{sector: i, symbol: -1})
		for j := range s.Symbols {
			rows = append(rows, row{sector: i, symbol: j})
		}
	}
	return Model{
		state:       StateModeSelect,
		modeList:    NewModeList(),
		outputInput: NewOutputInput(defaultOutput),
		sectors:     sectors,
		rows:        rows,
		selected:    make(map[string]bool),
		output:      defaultOutput,
		height:      24,
	}
}

// Result returns the selection once the form was completed.
func (m Model) Result() (Result, bool) {
	if m.state != StateDone || m.aborted {
		return Result{}, false
	}
	return Result{Mode: m.mode, Symbols: m.Symbols(), Output: m.output}, true
}

// Symbols returns the selected symbols in catalog order.
func (m Model) Symbols() []string {
	var out []string
	for _, s := range m.sectors {
		for _, sym := range s.Symbols {
			if m.selected[sym] {
				out = append(out, sym)
			}
		}
	}
	return universe.Union(out)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		case "q":
			if m.state != StateOutputInput {
				m.aborted = true
				return m, tea.Quit
			}
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.modeList.SetSize(msg.Width, msg.Height-4)
		m.scroll()
		return m, nil
	}

	switch m.state {
	case StateModeSelect:
		return m.updateModeSelect(msg)
	case StateSymbolSelect:
		return m.updateSymbolSelect(msg)
	case StateOutputInput:
		return m.updateOutputInput(msg)
	}
	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	m.err = ""
	switch m.state {
	case StateModeSelect:
		m.aborted = true
		return m, tea.Quit
	case StateSymbolSelect:
		m.state = StateModeSelect
	case StateOutputInput:
		m.outputInput.Blur()
		m.state = StateSymbolSelect
	}
	return m, nil
}

func (m Model) updateModeSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if item, ok := m.modeList.SelectedItem().(listItem); ok {
			m.mode = item.mode
			m.state = StateSymbolSelect
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.modeList, cmd = m.modeList.Update(msg)
	return m, cmd
}

func (m Model) updateSymbolSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.rows) - 1
	case " ", "space", "x":
		m.toggle(m.rows[m.cursor])
	case "a":
		m.toggleAll()
	case "enter":
		if len(m.Symbols()) == 0 {
			m.err = "Select at least one symbol"
			return m, nil
		}
		m.err = ""
		if !m.mode.WritesFile() {
			m.state = StateDone
			return m, tea.Quit
		}
		m.state = StateOutputInput
		return m, tea.Batch(m.outputInput.Focus(), textinput.Blink)
	}
	m.scroll()
	return m, nil
}

func (m Model) updateOutputInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if v := strings.TrimSpace(m.outputInput.Value()); v != "" {
			m.output = v
		}
		m.outputInput.Blur()
		m.state = StateDone
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.outputInput, cmd = m.outputInput.Update(msg)
	return m, cmd
}

func (m *Model) toggle(r row) {
	sector := m.sectors[r.sector]
	if r.symbol >= 0 {
		sym := sector.Symbols[r.symbol]
		m.selected[sym] = !m.selected[sym]
		return
	}
	all := m.sectorState(r.sector) == checkAll
	for _, sym := range sector.Symbols {
		m.selected[sym] = !all
	}
}

func (m *Model) toggleAll() {
	all := true
	for i := range m.sectors {
		if m.sectorState(i) != checkAll {
			all = false
			break
		}
	}
	for _, s := range m.sectors {
		for _, sym := range s.Symbols {
			m.selected[sym] = !all
		}
	}
}

// scroll keeps the cursor inside the visible part of the picker.
func (m *Model) scroll() {
	visible := m.pickerHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m Model) pickerHeight() int {
	return max(m.height-7, 5)
}
