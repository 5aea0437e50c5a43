package teaui

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-wizard/pkg/model"
	"github.com/goliatone/go-wizard/pkg/session"
)

func (m *wizardModel) View() string {
	if m.finished || m.err != nil || m.session.State().Terminal() {
		return ""
	}

	var b strings.Builder
	title := m.view.Step.Title
	if title == "" {
		title = m.view.Step.Name
	}
	b.WriteString(m.styles.title.Render(fmt.Sprintf("[%d/%d] %s", m.view.Index+1, m.view.Count, title)))
	b.WriteString("\n")
	if m.view.Step.Description != "" {
		b.WriteString(m.styles.subtitle.Render(m.view.Step.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.errLine != "" {
		b.WriteString(m.styles.errLine.Render("✗ " + m.errLine))
		b.WriteString("\n\n")
	}

	for i, cv := range m.view.Controls {
		m.renderControl(&b, i, cv)
	}

	b.WriteString("\n")
	b.WriteString(m.styles.muted.Render(m.footer()))
	b.WriteString("\n")
	return b.String()
}

func (m *wizardModel) renderControl(b *strings.Builder, i int, cv session.ControlView) {
	focused := m.phase == phaseControl && i == m.idx
	label := cv.Control.Label
	if label == "" {
		label = cv.Control.Name
	}

	marker := "  "
	if focused {
		marker = m.styles.prompt.Render("» ")
	}
	b.WriteString(marker)
	b.WriteString(label)

	if !focused {
		b.WriteString(": ")
		b.WriteString(m.styles.value.Render(displayValue(cv)))
		if !cv.Result.OK {
			b.WriteString("  " + m.styles.errLine.Render(cv.Result.Message))
		}
		b.WriteString("\n")
		return
	}

	b.WriteString("\n")
	switch cv.Control.Type {
	case model.ControlTypeBoolean:
		yes, no := "yes", "no"
		if m.toggle {
			yes = m.styles.selected.Render("● yes")
			no = m.styles.muted.Render("○ no")
		} else {
			yes = m.styles.muted.Render("○ yes")
			no = m.styles.selected.Render("● no")
		}
		b.WriteString("    " + yes + "   " + no + "\n")
	case model.ControlTypeSelect:
		for j, option := range cv.Control.Options {
			line := "    " + option
			if j == m.cursor {
				line = "  " + m.styles.selected.Render("› "+option)
			}
			b.WriteString(line + "\n")
		}
	case model.ControlTypeMultiSelect:
		for j, option := range cv.Control.Options {
			box := "[ ]"
			if _, ok := m.picked[j]; ok {
				box = "[x]"
			}
			line := fmt.Sprintf("    %s %s", box, option)
			if j == m.cursor {
				line = m.styles.selected.Render(fmt.Sprintf("  › %s %s", box, option))
			}
			b.WriteString(line + "\n")
		}
	default:
		b.WriteString("  " + m.input.View() + "\n")
	}
	if cv.Control.Help != "" {
		b.WriteString("  " + m.styles.muted.Render(cv.Control.Help) + "\n")
	}
}

func (m *wizardModel) footer() string {
	if m.phase == phaseNav {
		action := "next step"
		if m.view.Index+1 == m.view.Count {
			action = "finish"
		}
		hints := []string{"enter: " + action}
		if len(m.view.Controls) > 0 && m.view.Step.Type != model.StepTypeInfo {
			hints = append(hints, "e: edit")
		}
		if m.view.CanRetreat {
			hints = append(hints, "esc: back")
		}
		hints = append(hints, "q: quit")
		return strings.Join(hints, " · ")
	}

	hints := []string{"enter: confirm"}
	switch m.focusedTypeSafe() {
	case model.ControlTypeBoolean:
		hints = append(hints, "space: toggle")
	case model.ControlTypeSelect:
		hints = append(hints, "↑/↓: choose")
	case model.ControlTypeMultiSelect:
		hints = append(hints, "↑/↓: move", "space: toggle")
	}
	if m.view.CanRetreat {
		hints = append(hints, "esc: back")
	} else {
		hints = append(hints, "esc: quit")
	}
	return strings.Join(hints, " · ")
}

func displayValue(cv session.ControlView) string {
	if cv.Control.Secret && cv.Value != nil {
		return "••••"
	}
	switch v := cv.Value.(type) {
	case nil:
		return "(unset)"
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case []string:
		if len(v) == 0 {
			return "(unset)"
		}
		return strings.Join(v, ", ")
	default:
		return asString(cv.Value)
	}
}
