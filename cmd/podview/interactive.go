package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lumastream/podwire"
	"github.com/lumastream/podwire/debug"
	"github.com/lumastream/podwire/transcode"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type viewMode int

const (
	viewText viewMode = iota
	viewDiag
)

type inspectModel struct {
	err      error
	filename string
	data     []byte
	table    *debug.TypeTable
	viewport viewport.Model
	mode     viewMode
	ready    bool
}

type renderedMsg struct {
	err  error
	text string
}

func newInspectModel(filename string, data []byte, table *debug.TypeTable) *inspectModel {
	return &inspectModel{filename: filename, data: data, table: table}
}

func (m *inspectModel) Init() tea.Cmd {
	return m.render
}

func (m *inspectModel) render() tea.Msg {
	switch m.mode {
	case viewDiag:
		v, err := podwire.Decode(m.data)
		if err != nil {
			return renderedMsg{err: err}
		}
		out, err := transcode.Diagnose(v)
		if err != nil {
			return renderedMsg{err: err}
		}
		return renderedMsg{text: out}
	default:
		out, err := renderAll(m.data, m.table)
		if err != nil {
			return renderedMsg{err: err}
		}
		return renderedMsg{text: out}
	}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if m.mode == viewText {
				m.mode = viewDiag
			} else {
				m.mode = viewText
			}
			return m, m.render
		}

	case tea.WindowSizeMsg:
		headerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight
		}

	case renderedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.viewport.SetContent(msg.text)
			m.viewport.GotoTop()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *inspectModel) View() string {
	var sb strings.Builder

	count, types := summarize(m.data)
	sb.WriteString(titleStyle.Render("podview: " + m.filename))
	sb.WriteString("\n")
	modeName := "text"
	if m.mode == viewDiag {
		modeName = "diag"
	}
	sb.WriteString(statusStyle.Render(fmt.Sprintf("%d bytes, %d pod(s) %v, view: %s", len(m.data), count, types, modeName)))
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		sb.WriteString("\n")
	} else if m.ready {
		sb.WriteString(m.viewport.View())
		sb.WriteString("\n")
	}

	sb.WriteString(helpStyle.Render("tab: switch view • ↑/↓: scroll • q: quit"))
	return sb.String()
}

func runInteractive(filename string, data []byte, table *debug.TypeTable) error {
	p := tea.NewProgram(newInspectModel(filename, data, table), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
