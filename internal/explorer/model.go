// Package explorer provides the interactive Bubble Tea chart explorer.
package explorer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/calcviz/internal/anim"
	"github.com/verte-zerg/calcviz/internal/calculus"
	"github.com/verte-zerg/calcviz/internal/chart"
	"github.com/verte-zerg/calcviz/internal/model"
	"github.com/verte-zerg/calcviz/internal/store"
	"github.com/verte-zerg/calcviz/internal/termplot"
)

// DefaultInterval is the time between animation frames.
const DefaultInterval = 50 * time.Millisecond

const (
	headerHeight = 2
	minPlotRows  = 2
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	readOutStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

var toggleKeys = map[string]chart.Flag{
	"d": chart.ShowDerivative,
	"s": chart.ShowSecondDerivative,
	"i": chart.ShowIntegral,
	"a": chart.ShowArea,
	"g": chart.ShowGrid,
	"p": chart.ShowPoints,
	"t": chart.ShowTangent,
	"m": chart.DarkMode,
	"c": chart.Gradient,
}

var targetKeys = map[string]anim.Target{
	"1": anim.TargetAmplitude,
	"2": anim.TargetFrequency,
	"3": anim.TargetPhase,
}

// Options configures the explorer.
type Options struct {
	Registry *calculus.Registry
	// Store may be nil; exports are then not recorded and presets are
	// unavailable.
	Store     *store.Store
	Animator  anim.Animator
	Interval  time.Duration
	ExportDir string
	// SVGLayout is the surface used for exports.
	SVGLayout chart.Layout
	UseColor  bool
	Now       func() time.Time
}

// frameMsg is one animation tick for the loop started with generation gen.
type frameMsg struct {
	gen uint64
}

// Model implements the Bubble Tea chart explorer.
type Model struct {
	opts  Options
	state chart.State
	frame chart.Frame
	ready bool

	sched anim.Scheduler

	width      int
	height     int
	plotCols   int
	plotRows   int
	pointerCol int

	errMsg string
	status string

	formMode   bool
	formInputs []textinput.Model
	formIndex  int
	formError  string

	presetMode  bool
	presetInput textinput.Model

	panel       panel
	presets     []model.Preset
	presetTable table.Model
	helpView    viewport.Model
}

// NewModel constructs an explorer showing the chart described by cfg.
func NewModel(cfg model.ChartConfig, opts Options) *Model {
	if opts.Registry == nil {
		opts.Registry = calculus.NewRegistry()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Animator.Step == 0 {
		opts.Animator = anim.DefaultAnimator()
	}
	if opts.SVGLayout.Width <= 0 || opts.SVGLayout.Height <= 0 {
		opts.SVGLayout = chart.DefaultLayout()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Model{
		opts:       opts,
		state:      chart.NewState(cfg),
		pointerCol: -1,
	}
	m.initInputs()
	return m
}

// State returns the current view state.
func (m *Model) State() chart.State {
	return m.state
}

// SetAnimTarget selects the parameter the animation drives.
func (m *Model) SetAnimTarget(t anim.Target) {
	m.apply(chart.SetAnimTarget{Target: t})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.recompute()
		return m, nil
	case frameMsg:
		if !m.sched.Tick(msg.gen) {
			return m, nil
		}
		m.apply(chart.AnimationFrame{Animator: m.opts.Animator})
		return m, m.tick(msg.gen)
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.formMode {
			return m.updateForm(msg)
		}
		if m.presetMode {
			return m.updatePreset(msg)
		}
		switch m.panel {
		case panelPresets:
			return m.updatePresets(msg)
		case panelHelp:
			return m.updateHelp(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if flag, ok := toggleKeys[key]; ok {
		m.apply(chart.Toggle{Flag: flag})
		return m, nil
	}
	if target, ok := targetKeys[key]; ok {
		m.apply(chart.SetAnimTarget{Target: target})
		m.status = "animating " + target.String()
		return m, nil
	}
	switch key {
	case "q":
		m.sched.Stop()
		return m, tea.Quit
	case "left", "h":
		m.movePointer(-1)
	case "right", "l":
		m.movePointer(1)
	case "esc":
		m.pointerCol = -1
		m.apply(chart.PointerLeave{})
	case "f":
		m.apply(chart.SelectFunction{Name: m.opts.Registry.Next(m.state.Function, 1)})
	case "F":
		m.apply(chart.SelectFunction{Name: m.opts.Registry.Next(m.state.Function, -1)})
	case " ", "space":
		return m, m.toggleAnimation()
	case "/":
		return m.startForm()
	case "w":
		return m.startPreset()
	case "o":
		m.openPresets()
	case "?":
		m.openHelp()
	case "e":
		m.export()
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	footer := m.renderFooter()
	footerHeight := lipgloss.Height(footer)
	bodyHeight := m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	var body string
	switch {
	case m.formMode:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, modalStyle.Render(m.renderForm()))
	case m.presetMode:
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, modalStyle.Render(m.renderPresetPrompt()))
	case m.panel != panelNone:
		body = fitLines(m.renderPanel(), m.width, bodyHeight)
	default:
		body = fitLines(m.renderChart(), m.width, bodyHeight)
	}
	return strings.Join([]string{header, body, fitLines(footer, m.width, footerHeight)}, "\n")
}

func (m *Model) apply(ev chart.Event) {
	next, err := m.state.Apply(ev)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.state = next
	m.errMsg = ""
	m.recompute()
}

func (m *Model) recompute() {
	if m.plotCols == 0 || m.plotRows == 0 {
		return
	}
	fr, err := chart.Compute(m.state, m.opts.Registry, termplot.LayoutFor(m.plotCols, m.plotRows))
	if err != nil {
		m.errMsg = err.Error()
		m.ready = false
		return
	}
	m.frame = fr
	m.ready = true
}

// updateLayout sizes the braille canvas: two header lines, the x axis,
// legend and read-out lines, and a footer of up to two lines.
func (m *Model) updateLayout() {
	m.plotCols = termplot.PlotWidthFor(m.width)
	rows := m.height - headerHeight - 3 - 2
	if rows < minPlotRows {
		rows = minPlotRows
	}
	m.plotRows = rows
	if m.pointerCol >= m.plotCols {
		m.pointerCol = m.plotCols - 1
	}
	if m.pointerCol >= 0 {
		m.state.PointerX = termplot.ColumnToPointer(termplot.PlotOffset() + m.pointerCol)
	}
	panelHeight := m.panelHeight()
	m.helpView.Width = m.width
	m.helpView.Height = panelHeight
	m.presetTable.SetWidth(m.width)
	m.presetTable.SetHeight(max(1, panelHeight-1))
	for i := range m.formInputs {
		promptWidth := lipgloss.Width(m.formInputs[i].Prompt)
		m.formInputs[i].Width = max(10, m.width/2-promptWidth)
	}
}

func (m *Model) movePointer(delta int) {
	if m.plotCols == 0 {
		return
	}
	if m.pointerCol < 0 {
		m.pointerCol = m.plotCols / 2
	} else {
		m.pointerCol += delta
	}
	if m.pointerCol < 0 {
		m.pointerCol = 0
	}
	if m.pointerCol >= m.plotCols {
		m.pointerCol = m.plotCols - 1
	}
	m.apply(chart.PointerMove{X: termplot.ColumnToPointer(termplot.PlotOffset() + m.pointerCol)})
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.formMode || m.presetMode || m.panel != panelNone || m.plotCols == 0 {
		return
	}
	col := msg.X - termplot.PlotOffset()
	row := msg.Y - headerHeight
	if col < 0 || col >= m.plotCols || row < 0 || row >= m.plotRows {
		if m.state.HasPointer {
			m.pointerCol = -1
			m.apply(chart.PointerLeave{})
		}
		return
	}
	if col == m.pointerCol && m.state.HasPointer {
		return
	}
	m.pointerCol = col
	m.apply(chart.PointerMove{X: termplot.ColumnToPointer(msg.X)})
}

func (m *Model) toggleAnimation() tea.Cmd {
	if m.sched.Running() {
		m.sched.Stop()
		m.apply(chart.SetAnimating{On: false})
		m.status = "animation stopped"
		return nil
	}
	gen := m.sched.Start()
	m.apply(chart.SetAnimating{On: true})
	m.status = "animating " + m.state.AnimTarget.String()
	return m.tick(gen)
}

func (m *Model) tick(gen uint64) tea.Cmd {
	return tea.Tick(m.opts.Interval, func(time.Time) tea.Msg {
		return frameMsg{gen: gen}
	})
}

func (m *Model) export() {
	path, err := m.exportSVG()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.status = "exported " + path
}

// exportSVG renders the current state on the SVG surface. The pointer is
// carried over by its x value, not its device position.
func (m *Model) exportSVG() (string, error) {
	s := m.state
	if m.ready && m.frame.Cursor != nil {
		s.PointerX = chart.XScale(s.Domain, m.opts.SVGLayout).Map(m.frame.Cursor.X)
	} else {
		s.HasPointer = false
	}
	fr, err := chart.Compute(s, m.opts.Registry, m.opts.SVGLayout)
	if err != nil {
		return "", err
	}
	dir := m.opts.ExportDir
	if dir == "" {
		dir = "."
	}
	now := m.opts.Now()
	name := fmt.Sprintf("calcviz-%s-%s.svg", s.Function, now.Format("20060102-150405.000"))
	path := filepath.Join(dir, name)
	if err := chart.SaveSVG(path, fr); err != nil {
		return "", err
	}
	if m.opts.Store != nil {
		rec := model.ExportRecord{Path: path, Function: s.Function, Domain: s.Domain, CreatedAt: now}
		if _, err := m.opts.Store.RecordExport(context.Background(), rec); err != nil {
			logErrf("failed to record export: %v\n", err)
		}
	}
	return path, nil
}

func (m *Model) renderHeader() string {
	title := "calcviz"
	if m.ready {
		title += "  " + m.frame.Equation
	}
	p := m.state.Params
	animState := "off"
	if m.state.Animating {
		animState = "on"
	}
	summary := fmt.Sprintf("Domain: [%s, %s]  A=%s F=%s P=%s  Animate %s (%s)",
		formatNumber(m.state.Domain.XMin), formatNumber(m.state.Domain.XMax),
		formatNumber(p.Amplitude), formatNumber(p.Frequency), formatNumber(p.Phase),
		m.state.AnimTarget, animState)
	return titleStyle.Render(termplot.Truncate(title, m.width)) + "\n" +
		headerStyle.Render(termplot.Truncate(summary, m.width))
}

func (m *Model) renderChart() string {
	if !m.ready {
		return ""
	}
	lines := []string{
		termplot.Render(m.frame, m.plotCols, m.plotRows, m.opts.UseColor),
		termplot.Legend(m.frame, m.opts.UseColor),
		readOutStyle.Render(termplot.Truncate(m.readOut(), m.width)),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) readOut() string {
	if m.frame.Cursor == nil {
		return "Move the pointer with left/right or the mouse"
	}
	return chart.ReadOut(*m.frame.Cursor)
}

func (m *Model) renderFooter() string {
	var help string
	switch {
	case m.formMode:
		help = "tab/shift+tab: next field  enter: apply  esc: cancel"
	case m.presetMode:
		help = "enter: save  esc: cancel"
	case m.panel == panelPresets:
		help = "up/down: select  enter: load  x: delete  esc: close"
	case m.panel == panelHelp:
		help = "up/down/pgup/pgdn: scroll  esc: close"
	default:
		help = "h/l pointer  f/F func  dsiagptmc toggle  space animate  / settings  e export  w save  ? help  q quit"
	}
	lines := []string{headerStyle.Render(termplot.Truncate(help, m.width))}
	switch {
	case m.errMsg != "":
		lines = append(lines, errorStyle.Render(termplot.Truncate(m.errMsg, m.width)))
	case m.status != "":
		lines = append(lines, statusStyle.Render(termplot.Truncate(m.status, m.width)))
	}
	return strings.Join(lines, "\n")
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}
