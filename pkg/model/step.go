package model

import "strings"

// StepOption configures a step at construction time.
type StepOption func(*Step)

// WithTitle sets the display title shown in the dialog header.
func WithTitle(title string) StepOption {
	return func(s *Step) { s.Title = title }
}

// WithStepDescription attaches a description shown under the title.
func WithStepDescription(desc string) StepOption {
	return func(s *Step) { s.Description = desc }
}

// WithOrder assigns an explicit sort key. Steps without one receive
// (max existing order) + 1 when added to a definition.
func WithOrder(order int) StepOption {
	return func(s *Step) {
		s.Order = order
		s.orderExplicit = true
	}
}

// Skippable allows the step to be departed without passing validation.
func Skippable() StepOption {
	return func(s *Step) { s.Skippable = true }
}

// Info marks the step as information-only. Info steps hold no required
// controls; registering one fails.
func Info() StepOption {
	return func(s *Step) { s.Type = StepTypeInfo }
}

// NewStep builds and validates a step shell. Controls are attached through
// Definition.AddControl or the Controls option on loaders.
func NewStep(name string, options ...StepOption) (Step, error) {
	step := Step{
		Name: strings.TrimSpace(name),
		Type: StepTypeForm,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&step)
	}
	if step.Name == "" {
		return Step{}, errStepNameRequired
	}
	return step, nil
}

// MustNewStep panics on construction failure.
func MustNewStep(name string, options ...StepOption) Step {
	step, err := NewStep(name, options...)
	if err != nil {
		panic(err)
	}
	return step
}

// HasExplicitOrder reports whether the order key was supplied by the caller.
func (s Step) HasExplicitOrder() bool { return s.orderExplicit }

// ControlByName returns the named control and whether it exists.
func (s Step) ControlByName(name string) (Control, bool) {
	for _, control := range s.Controls {
		if control.Name == name {
			return control, true
		}
	}
	return Control{}, false
}
