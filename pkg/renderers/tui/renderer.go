// Package tui implements an interactive terminal renderer on top of survey
// prompts. Each wizard step becomes a prompt sequence; navigation is a select
// prompt offering Next/Back/Finish/Cancel as the session allows.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goliatone/go-wizard/pkg/model"
	"github.com/goliatone/go-wizard/pkg/render"
	"github.com/goliatone/go-wizard/pkg/session"
)

const (
	actionNext   = "Next"
	actionBack   = "Back"
	actionFinish = "Finish"
	actionCancel = "Cancel"
)

// Renderer implements render.Renderer for terminal-driven sessions.
type Renderer struct {
	driver   PromptDriver
	pageSize int
}

// New constructs a TUI renderer with the survey driver as default.
func New(options ...Option) (*Renderer, error) {
	driver, err := newSurveyDriver()
	if err != nil {
		return nil, err
	}

	r := &Renderer{driver: driver}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string { return "tui" }

// Run drives the session until it completes or is cancelled. On abort or
// context cancellation the session is cancelled before returning.
func (r *Renderer) Run(ctx context.Context, s *session.Session, options render.RunOptions) (session.Snapshot, error) {
	if ctx == nil {
		return session.Snapshot{}, errors.New("tui: context is required")
	}
	if s == nil {
		return session.Snapshot{}, errors.New("tui: session is required")
	}
	if !s.Built() {
		return session.Snapshot{}, ErrNotBuilt
	}

	if options.Output != nil {
		if sink, ok := r.driver.(interface{ SetOutput(io.Writer) }); ok {
			sink.SetOutput(options.Output)
		}
	}

	if s.State() == session.StateNotStarted {
		if err := s.Start(); err != nil {
			return session.Snapshot{}, err
		}
	}

	seeded := make(map[string]struct{})
	for s.State() == session.StateRunning {
		if err := ctx.Err(); err != nil {
			_ = s.Cancel()
			return session.Snapshot{}, err
		}

		snapshot, done, err := r.runStep(ctx, s, options, seeded)
		if err != nil {
			if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
				_ = s.Cancel()
			}
			return session.Snapshot{}, err
		}
		if done {
			return snapshot, nil
		}
	}
	return session.Snapshot{}, fmt.Errorf("tui: session ended in state %s", s.State())
}

// runStep prompts the active step's controls and then one navigation action.
// done is true only when the session finished and snapshot carries the result.
func (r *Renderer) runStep(ctx context.Context, s *session.Session, options render.RunOptions, seeded map[string]struct{}) (session.Snapshot, bool, error) {
	view, err := s.CurrentView()
	if err != nil {
		return session.Snapshot{}, false, err
	}

	if _, ok := seeded[view.Step.Name]; !ok {
		seeded[view.Step.Name] = struct{}{}
		for name, value := range render.StepValues(options.Values, view.Step.Name) {
			if err := s.SubmitValue(name, value); err != nil {
				return session.Snapshot{}, false, err
			}
		}
		view, err = s.CurrentView()
		if err != nil {
			return session.Snapshot{}, false, err
		}
	}

	if err := r.printHeader(ctx, view); err != nil {
		return session.Snapshot{}, false, err
	}

	if view.Step.Type == model.StepTypeInfo {
		return r.navigateInfo(ctx, s, view, options)
	}

	if err := r.promptControls(ctx, s); err != nil {
		return session.Snapshot{}, false, err
	}
	return r.navigate(ctx, s)
}

func (r *Renderer) printHeader(ctx context.Context, view session.View) error {
	title := view.Step.Title
	if title == "" {
		title = view.Step.Name
	}
	header := fmt.Sprintf("[%d/%d] %s", view.Index+1, view.Count, title)
	if err := r.driver.Info(ctx, header); err != nil {
		return err
	}
	if view.Step.Description != "" {
		return r.driver.Info(ctx, view.Step.Description)
	}
	return nil
}

// promptControls walks the step's visible controls, re-reading the view after
// every submission because a value change can reveal or hide siblings.
func (r *Renderer) promptControls(ctx context.Context, s *session.Session) error {
	asked := make(map[string]struct{})
	for {
		view, err := s.CurrentView()
		if err != nil {
			return err
		}
		var pending *session.ControlView
		for i := range view.Controls {
			if _, ok := asked[view.Controls[i].Path]; !ok {
				pending = &view.Controls[i]
				break
			}
		}
		if pending == nil {
			return nil
		}
		asked[pending.Path] = struct{}{}

		value, err := r.promptControl(ctx, *pending)
		if err != nil {
			return err
		}
		if err := s.SubmitValue(pending.Control.Name, value); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptControl(ctx context.Context, cv session.ControlView) (any, error) {
	control := cv.Control
	message := control.Label
	if message == "" {
		message = control.Name
	}

	switch control.Type {
	case model.ControlTypeBoolean:
		current, _ := cv.Value.(bool)
		return r.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: current,
			Help:    control.Help,
		})
	case model.ControlTypeSelect:
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      control.Options,
			DefaultIndex: indexOf(control.Options, stringOf(cv.Value)),
			Help:         control.Help,
			PageSize:     r.pageSize,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(control.Options) {
			return nil, nil
		}
		return control.Options[idx], nil
	case model.ControlTypeMultiSelect:
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  control.Options,
			Defaults: indicesOf(control.Options, stringsOf(cv.Value)),
			Help:     control.Help,
			PageSize: r.pageSize,
		})
		if err != nil {
			return nil, err
		}
		return defaultsFromIndices(control.Options, indices), nil
	case model.ControlTypeInteger:
		raw, err := r.promptText(ctx, control, stringOf(cv.Value), validateInteger)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tui: %s: %w", control.Name, err)
		}
		return int(n), nil
	case model.ControlTypeNumber:
		raw, err := r.promptText(ctx, control, stringOf(cv.Value), validateNumber)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("tui: %s: %w", control.Name, err)
		}
		return f, nil
	default: // string
		raw, err := r.promptText(ctx, control, stringOf(cv.Value), nil)
		if err != nil {
			return nil, err
		}
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	}
}

func (r *Renderer) promptText(ctx context.Context, control model.Control, current string, validator func(string) error) (string, error) {
	cfg := InputConfig{
		Message:   displayLabel(control),
		Default:   current,
		Help:      control.Help,
		Validator: validator,
	}
	if control.Secret {
		cfg.Default = ""
		return r.driver.Password(ctx, cfg)
	}
	return r.driver.Input(ctx, cfg)
}

// navigate prompts for the step action and applies it. Validation failures
// are printed and leave the session on the same step for another pass.
func (r *Renderer) navigate(ctx context.Context, s *session.Session) (session.Snapshot, bool, error) {
	view, err := s.CurrentView()
	if err != nil {
		return session.Snapshot{}, false, err
	}

	last := view.Index+1 == view.Count
	actions := make([]string, 0, 3)
	if last {
		actions = append(actions, actionFinish)
	} else {
		actions = append(actions, actionNext)
	}
	if view.CanRetreat {
		actions = append(actions, actionBack)
	}
	actions = append(actions, actionCancel)

	idx, err := r.driver.Select(ctx, SelectConfig{Message: "Action", Options: actions})
	if err != nil {
		return session.Snapshot{}, false, err
	}
	if idx < 0 || idx >= len(actions) {
		return session.Snapshot{}, false, nil
	}

	switch actions[idx] {
	case actionBack:
		return session.Snapshot{}, false, s.Retreat()
	case actionCancel:
		if err := s.Cancel(); err != nil {
			return session.Snapshot{}, false, err
		}
		return session.Snapshot{}, false, ErrAborted
	case actionFinish:
		snapshot, err := s.Finish()
		if err != nil {
			return session.Snapshot{}, false, r.reportBlocked(ctx, err)
		}
		return snapshot, true, nil
	default: // Next
		if err := s.Advance(); err != nil {
			return session.Snapshot{}, false, r.reportBlocked(ctx, err)
		}
		return session.Snapshot{}, false, nil
	}
}

// navigateInfo handles information-only steps: no control prompts, and the
// acknowledgement is skipped entirely when AutoAdvanceInfo is set.
func (r *Renderer) navigateInfo(ctx context.Context, s *session.Session, view session.View, options render.RunOptions) (session.Snapshot, bool, error) {
	if options.AutoAdvanceInfo {
		if view.Index+1 == view.Count {
			snapshot, err := s.Finish()
			if err != nil {
				return session.Snapshot{}, false, err
			}
			return snapshot, true, nil
		}
		return session.Snapshot{}, false, s.Advance()
	}
	return r.navigate(ctx, s)
}

// reportBlocked prints per-control validation messages and swallows the error
// so the step loop re-prompts; other failures pass through.
func (r *Renderer) reportBlocked(ctx context.Context, err error) error {
	failures := render.FailureMessages(err)
	if failures == nil {
		return err
	}
	for _, messages := range failures {
		for _, message := range messages {
			if infoErr := r.driver.Info(ctx, "✗ "+message); infoErr != nil {
				return infoErr
			}
		}
	}
	return nil
}

func displayLabel(control model.Control) string {
	if control.Label != "" {
		return control.Label
	}
	return control.Name
}

func stringOf(value any) string {
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

func stringsOf(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringOf(item))
		}
		return out
	default:
		return nil
	}
}

func validateInteger(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err != nil {
		return errors.New("enter a whole number")
	}
	return nil
}

func validateNumber(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
		return errors.New("enter a number")
	}
	return nil
}
