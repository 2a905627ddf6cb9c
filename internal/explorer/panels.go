package explorer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/calcviz/internal/chart"
	"github.com/verte-zerg/calcviz/internal/model"
	"github.com/verte-zerg/calcviz/internal/termplot"
)

type panel int

const (
	panelNone panel = iota
	panelPresets
	panelHelp
)

var keyHelp = [][]string{
	{"left/right, h/l", "move the pointer one column"},
	{"esc", "hide the pointer"},
	{"f / F", "next / previous function"},
	{"d", "derivative"},
	{"s", "second derivative"},
	{"i", "integral"},
	{"a", "area under the curve"},
	{"g", "grid"},
	{"p", "sample points"},
	{"t", "tangent line"},
	{"m", "dark mode"},
	{"c", "derivative color gradient"},
	{"space", "start / stop animation"},
	{"1 2 3", "animate amplitude, frequency, phase"},
	{"/", "edit domain and parameters"},
	{"e", "export SVG"},
	{"w", "save preset"},
	{"o", "open presets"},
	{"?", "this help"},
	{"q", "quit"},
}

func (m *Model) openPresets() {
	if m.opts.Store == nil {
		m.errMsg = "presets need a database"
		return
	}
	presets, err := m.opts.Store.ListPresets(context.Background())
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to list presets: %v", err)
		return
	}
	if len(presets) == 0 {
		m.status = "no presets saved yet (press w to save one)"
		return
	}
	m.presets = presets
	m.presetTable = buildPresetTable(presets, m.width, m.panelHeight())
	m.presetTable.Focus()
	m.panel = panelPresets
}

func buildPresetTable(presets []model.Preset, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Name", Width: 16},
		{Title: "Function", Width: 12},
		{Title: "Domain", Width: 16},
		{Title: "Params", Width: 24},
	}
	rows := make([]table.Row, 0, len(presets))
	for _, p := range presets {
		c := p.Config
		rows = append(rows, table.Row{
			p.Name,
			c.Function,
			fmt.Sprintf("[%s, %s]", formatNumber(c.Domain.XMin), formatNumber(c.Domain.XMax)),
			fmt.Sprintf("A=%s F=%s P=%s", formatNumber(c.Params.Amplitude), formatNumber(c.Params.Frequency), formatNumber(c.Params.Phase)),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(presetTableStyles())
	return t
}

func presetTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) updatePresets(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "o", "q":
		m.closePanel()
		return m, nil
	case "enter":
		idx := m.presetTable.Cursor()
		if idx >= 0 && idx < len(m.presets) {
			m.loadPreset(m.presets[idx])
		}
		m.closePanel()
		return m, nil
	case "x", "delete":
		idx := m.presetTable.Cursor()
		if idx < 0 || idx >= len(m.presets) {
			return m, nil
		}
		name := m.presets[idx].Name
		if err := m.opts.Store.DeletePreset(context.Background(), name); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.status = "deleted preset " + name
		m.closePanel()
		m.openPresets()
		return m, nil
	}
	var cmd tea.Cmd
	m.presetTable, cmd = m.presetTable.Update(msg)
	return m, cmd
}

// loadPreset replaces the chart settings but keeps pointer and animation.
func (m *Model) loadPreset(p model.Preset) {
	next := chart.NewState(p.Config)
	next.PointerX = m.state.PointerX
	next.HasPointer = m.state.HasPointer
	next.AnimTarget = m.state.AnimTarget
	next.Animating = m.state.Animating
	m.state = next
	m.errMsg = ""
	m.status = "loaded preset " + p.Name
	m.recompute()
}

func (m *Model) openHelp() {
	m.helpView = viewport.New(m.width, m.panelHeight())
	m.helpView.SetContent(m.helpContent())
	m.panel = panelHelp
}

func (m *Model) helpContent() string {
	lines := []string{titleStyle.Render("Keys")}
	lines = append(lines, termplot.FormatTable(nil, keyHelp, nil)...)
	lines = append(lines, "", titleStyle.Render("Functions"))
	rows := make([][]string, 0, len(m.opts.Registry.Entries()))
	for _, e := range m.opts.Registry.Entries() {
		marker := " "
		if e.Name == m.state.Function {
			marker = "*"
		}
		rows = append(rows, []string{marker, e.Name, e.Equation(m.state.Params), e.Description})
	}
	lines = append(lines, termplot.FormatTable(nil, rows, nil)...)
	return strings.Join(lines, "\n")
}

func (m *Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "?", "q":
		m.closePanel()
		return m, nil
	}
	var cmd tea.Cmd
	m.helpView, cmd = m.helpView.Update(msg)
	return m, cmd
}

func (m *Model) closePanel() {
	m.panel = panelNone
	m.presetTable.Blur()
}

func (m *Model) panelHeight() int {
	return max(1, m.height-headerHeight-2)
}

func (m *Model) renderPanel() string {
	switch m.panel {
	case panelPresets:
		return m.presetTable.View()
	case panelHelp:
		return m.helpView.View()
	}
	return ""
}
