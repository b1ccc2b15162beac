package tui

import (
	"fmt"
	"strings"

	"divcompiler/internal/compiler"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
)

// listItem implements list.Item for the mode list.
type listItem struct {
	mode compiler.Mode
}

func (i listItem) Title() string       { return string(i.mode) }
func (i listItem) Description() string { return i.mode.Description() }
func (i listItem) FilterValue() string { return string(i.mode) }

func NewModeList() list.Model {
	items := make([]list.Item, 0, len(compiler.Modes))
	for _, mode := range compiler.Modes {
		items = append(items, listItem{mode: mode})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Mode"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

func NewOutputInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = compiler.DefaultOutput
	ti.SetValue(value)
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

type checkState int

const (
	checkNone checkState = iota
	checkSome
	checkAll
)

func (m Model) sectorState(i int) checkState {
	n := 0
	for _, sym := range m.sectors[i].Symbols {
		if m.selected[sym] {
			n++
		}
	}
	switch {
	case n == 0:
		return checkNone
	case n == len(m.sectors[i].Symbols):
		return checkAll
	default:
		return checkSome
	}
}

func checkbox(s checkState) string {
	switch s {
	case checkAll:
		return "[x]"
	case checkSome:
		return "[-]"
	}
	return "[ ]"
}

func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateModeSelect:
		s.WriteString(TitleStyle.Render("Dividend Data Compiler"))
		s.WriteString("\n\n")
		s.WriteString(m.modeList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, q to quit"))

	case StateSymbolSelect:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Select Symbols (%s)", m.mode)))
		s.WriteString("\n\n")
		end := min(m.offset+m.pickerHeight(), len(m.rows))
		for i := m.offset; i < end; i++ {
			line := m.renderRow(m.rows[i])
			if i == m.cursor {
				line = CursorStyle.Render(line)
			}
			s.WriteString(line)
			s.WriteString("\n")
		}
		s.WriteString("\n")
		if m.err != "" {
			s.WriteString(ErrorStyle.Render(m.err))
			s.WriteString("\n")
		}
		s.WriteString(HelpStyle.Render(fmt.Sprintf("%d selected | space: toggle | a: all | Enter: continue | Esc: back", len(m.Symbols()))))

	case StateOutputInput:
		s.WriteString(TitleStyle.Render("Output File"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Write %d symbols (%s) to:\n\n", len(m.Symbols()), m.mode))
		s.WriteString(m.outputInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Press Enter to run, Esc to go back"))
	}

	return s.String()
}

func (m Model) renderRow(r row) string {
	sector := m.sectors[r.sector]
	if r.symbol < 0 {
		return fmt.Sprintf("%s %s", checkbox(m.sectorState(r.sector)), SectorStyle.Render(sector.Name))
	}
	sym := sector.Symbols[r.symbol]
	state := checkNone
	if m.selected[sym] {
		state = checkAll
	}
	return fmt.Sprintf("    %s %s", checkbox(state), sym)
}
