// Package teaui implements a full-screen wizard renderer on bubbletea. One
// control is focused at a time; enter commits it, esc retreats or cancels,
// and the final step ends in Finish. All wizard state lives in the session;
// the model only tracks focus and editor widgets.
package teaui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-wizard/pkg/model"
	"github.com/goliatone/go-wizard/pkg/render"
	"github.com/goliatone/go-wizard/pkg/session"
)

type phase int

const (
	phaseControl phase = iota
	phaseNav
)

type wizardModel struct {
	session *session.Session
	options render.RunOptions
	styles  styles

	view     session.View
	idx      int
	phase    phase
	input    textinput.Model
	cursor   int
	picked   map[int]struct{}
	toggle   bool
	errLine  string
	seeded   map[string]struct{}
	finished bool
	snapshot session.Snapshot
	err      error

	width  int
	height int
}

func newWizardModel(s *session.Session, options render.RunOptions) *wizardModel {
	return &wizardModel{
		session: s,
		options: options,
		styles:  newStyles(options.Theme),
		seeded:  make(map[string]struct{}),
	}
}

func (m *wizardModel) Init() tea.Cmd {
	if m.session.State() == session.StateNotStarted {
		if err := m.session.Start(); err != nil {
			m.err = err
			return tea.Quit
		}
	}
	if err := m.enterStep(); err != nil {
		m.err = err
		return tea.Quit
	}
	return textinput.Blink
}

// enterStep refreshes the view for the active step, applies any pre-seeded
// values once, and focuses the first visible control.
func (m *wizardModel) enterStep() error {
	view, err := m.session.CurrentView()
	if err != nil {
		return err
	}
	if _, ok := m.seeded[view.Step.Name]; !ok {
		m.seeded[view.Step.Name] = struct{}{}
		for name, value := range render.StepValues(m.options.Values, view.Step.Name) {
			if err := m.session.SubmitValue(name, value); err != nil {
				return err
			}
		}
		view, err = m.session.CurrentView()
		if err != nil {
			return err
		}
	}
	m.view = view
	m.idx = 0
	m.errLine = ""
	if len(view.Controls) == 0 || view.Step.Type == model.StepTypeInfo {
		m.phase = phaseNav
		return nil
	}
	m.phase = phaseControl
	m.focusControl()
	return nil
}

// refresh re-reads the view after a submission, keeping focus position while
// the dependency cascade may have revealed or hidden siblings.
func (m *wizardModel) refresh() error {
	view, err := m.session.CurrentView()
	if err != nil {
		return err
	}
	m.view = view
	if m.idx >= len(view.Controls) {
		m.phase = phaseNav
		return nil
	}
	m.focusControl()
	return nil
}

func (m *wizardModel) focused() session.ControlView {
	return m.view.Controls[m.idx]
}

func (m *wizardModel) focusControl() {
	cv := m.focused()
	switch cv.Control.Type {
	case model.ControlTypeBoolean:
		m.toggle, _ = cv.Value.(bool)
	case model.ControlTypeSelect:
		m.cursor = indexOfOption(cv.Control.Options, asString(cv.Value))
		if m.cursor < 0 {
			m.cursor = 0
		}
	case model.ControlTypeMultiSelect:
		m.cursor = 0
		m.picked = make(map[int]struct{})
		for _, item := range asStrings(cv.Value) {
			if i := indexOfOption(cv.Control.Options, item); i >= 0 {
				m.picked[i] = struct{}{}
			}
		}
	default:
		input := textinput.New()
		input.Prompt = "> "
		input.SetValue(asString(cv.Value))
		if cv.Control.Secret {
			input.SetValue("")
			input.EchoMode = textinput.EchoPassword
		}
		input.Focus()
		if m.width > 4 {
			input.Width = m.width - 4
		}
		m.input = input
	}
}

func (m *wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "esc":
			return m.handleEsc()
		}
		if m.phase == phaseNav {
			return m.handleNavKey(msg)
		}
		return m.handleControlKey(msg)
	}
	if m.phase == phaseControl && isTextControl(m.focusedTypeSafe()) {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *wizardModel) focusedTypeSafe() model.ControlType {
	if m.phase != phaseControl || m.idx >= len(m.view.Controls) {
		return ""
	}
	return m.focused().Control.Type
}

func (m *wizardModel) handleEsc() (tea.Model, tea.Cmd) {
	if m.view.CanRetreat {
		if err := m.session.Retreat(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if err := m.enterStep(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, nil
	}
	m.cancel()
	return m, tea.Quit
}

func (m *wizardModel) handleControlKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cv := m.focused()
	switch cv.Control.Type {
	case model.ControlTypeBoolean:
		switch msg.String() {
		case "left", "right", " ", "tab":
			m.toggle = !m.toggle
			return m, nil
		case "enter":
			return m.commit(m.toggle)
		}
	case model.ControlTypeSelect:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(cv.Control.Options)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			return m.commit(cv.Control.Options[m.cursor])
		}
	case model.ControlTypeMultiSelect:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(cv.Control.Options)-1 {
				m.cursor++
			}
			return m, nil
		case " ":
			if _, ok := m.picked[m.cursor]; ok {
				delete(m.picked, m.cursor)
			} else {
				m.picked[m.cursor] = struct{}{}
			}
			return m, nil
		case "enter":
			var values []string
			for i, option := range cv.Control.Options {
				if _, ok := m.picked[i]; ok {
					values = append(values, option)
				}
			}
			return m.commit(values)
		}
	default:
		if msg.String() == "enter" {
			value, err := parseScalar(cv.Control.Type, m.input.Value())
			if err != nil {
				m.errLine = err.Error()
				return m, nil
			}
			return m.commit(value)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// commit submits the focused control's value and moves focus forward.
func (m *wizardModel) commit(value any) (tea.Model, tea.Cmd) {
	cv := m.focused()
	if err := m.session.SubmitValue(cv.Control.Name, value); err != nil {
		m.errLine = err.Error()
		return m, nil
	}
	m.errLine = ""
	m.idx++
	if err := m.refresh(); err != nil {
		m.err = err
		return m, tea.Quit
	}
	return m, nil
}

func (m *wizardModel) handleNavKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.view.Index+1 == m.view.Count {
			snapshot, err := m.session.Finish()
			if err != nil {
				return m.blockOn(err)
			}
			m.snapshot = snapshot
			m.finished = true
			return m, tea.Quit
		}
		if err := m.session.Advance(); err != nil {
			return m.blockOn(err)
		}
		if err := m.enterStep(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, nil
	case "e":
		// Re-edit the step's controls.
		if len(m.view.Controls) > 0 && m.view.Step.Type != model.StepTypeInfo {
			m.idx = 0
			m.phase = phaseControl
			m.focusControl()
		}
		return m, nil
	case "q":
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

// blockOn folds validation failures into the status line and returns focus to
// the first control; other errors end the program.
func (m *wizardModel) blockOn(err error) (tea.Model, tea.Cmd) {
	failures := render.FailureMessages(err)
	if failures == nil {
		m.err = err
		return m, tea.Quit
	}
	var messages []string
	for _, control := range failures {
		messages = append(messages, control...)
	}
	m.errLine = strings.Join(render.MergeMessages(nil, messages...), "; ")
	if len(m.view.Controls) > 0 {
		m.idx = 0
		m.phase = phaseControl
		m.focusControl()
	}
	return m, nil
}

func (m *wizardModel) cancel() {
	if !m.session.State().Terminal() {
		_ = m.session.Cancel()
	}
}

func isTextControl(typ model.ControlType) bool {
	switch typ {
	case model.ControlTypeString, model.ControlTypeInteger, model.ControlTypeNumber:
		return true
	default:
		return false
	}
}

func parseScalar(typ model.ControlType, raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	switch typ {
	case model.ControlTypeInteger:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("enter a whole number")
		}
		return int(n), nil
	case model.ControlTypeNumber:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("enter a number")
		}
		return f, nil
	default:
		return raw, nil
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

func asStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, asString(item))
		}
		return out
	default:
		return nil
	}
}

func indexOfOption(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}
