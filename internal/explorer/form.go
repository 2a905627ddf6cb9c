package explorer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/calcviz/internal/chart"
	"github.com/verte-zerg/calcviz/internal/model"
)

const (
	fieldXMin = iota
	fieldXMax
	fieldAmplitude
	fieldFrequency
	fieldPhase
)

func (m *Model) initInputs() {
	m.formInputs = []textinput.Model{
		newInput("x min: "),
		newInput("x max: "),
		newInput("Amplitude: "),
		newInput("Frequency: "),
		newInput("Phase: "),
	}
	m.presetInput = newInput("Preset name: ")
	m.presetTable = buildPresetTable(nil, 0, 1)
	m.helpView = viewport.New(0, 0)
}

func (m *Model) setInputsFromState() {
	p := m.state.Params
	m.formInputs[fieldXMin].SetValue(formatNumber(m.state.Domain.XMin))
	m.formInputs[fieldXMax].SetValue(formatNumber(m.state.Domain.XMax))
	m.formInputs[fieldAmplitude].SetValue(formatNumber(p.Amplitude))
	m.formInputs[fieldFrequency].SetValue(formatNumber(p.Frequency))
	m.formInputs[fieldPhase].SetValue(formatNumber(p.Phase))
}

func (m *Model) startForm() (tea.Model, tea.Cmd) {
	m.formMode = true
	m.formError = ""
	m.setInputsFromState()
	return m, m.setFormIndex(0)
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.formMode = false
		m.formError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyForm(); err != nil {
			m.formError = err.Error()
			return m, nil
		}
		m.formMode = false
		m.formError = ""
		return m, nil
	case tea.KeyTab:
		return m, m.setFormIndex(m.formIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFormIndex(m.formIndex - 1)
	}
	var cmd tea.Cmd
	m.formInputs[m.formIndex], cmd = m.formInputs[m.formIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFormIndex(idx int) tea.Cmd {
	count := len(m.formInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.formIndex = idx
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == m.formIndex {
			cmd = m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
	return cmd
}

// applyForm validates every field before changing any state.
func (m *Model) applyForm() error {
	values := make([]float64, len(m.formInputs))
	for i, input := range m.formInputs {
		raw := strings.TrimSpace(input.Value())
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %s (use a number)", strings.TrimSuffix(strings.ToLower(input.Prompt), ": "))
		}
		values[i] = v
	}
	domain := model.Domain{XMin: values[fieldXMin], XMax: values[fieldXMax]}
	params := model.Params{
		Amplitude: values[fieldAmplitude],
		Frequency: values[fieldFrequency],
		Phase:     values[fieldPhase],
	}
	next, err := m.state.Apply(chart.SetDomain{Domain: domain})
	if err != nil {
		return err
	}
	if next, err = next.Apply(chart.SetParams{Params: params}); err != nil {
		return err
	}
	m.state = next
	m.errMsg = ""
	m.recompute()
	return nil
}

func (m *Model) renderForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.formInputs {
		lines = append(lines, input.View())
	}
	if m.formError != "" {
		lines = append(lines, errorStyle.Render(m.formError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) startPreset() (tea.Model, tea.Cmd) {
	if m.opts.Store == nil {
		m.errMsg = "presets need a database"
		return m, nil
	}
	m.presetMode = true
	m.presetInput.SetValue("")
	return m, m.presetInput.Focus()
}

func (m *Model) updatePreset(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.presetMode = false
		m.presetInput.Blur()
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.presetInput.Value())
		if name == "" {
			return m, nil
		}
		m.presetMode = false
		m.presetInput.Blur()
		if err := m.savePreset(name); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.status = "saved preset " + name
		return m, nil
	}
	var cmd tea.Cmd
	m.presetInput, cmd = m.presetInput.Update(msg)
	return m, cmd
}

func (m *Model) savePreset(name string) error {
	p := model.Preset{Name: name, Config: m.state.Config(), UpdatedAt: m.opts.Now()}
	if err := m.opts.Store.SavePreset(context.Background(), p); err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}
	return nil
}

func (m *Model) renderPresetPrompt() string {
	return "Save preset (enter to save, esc to cancel)\n" + m.presetInput.View()
}
