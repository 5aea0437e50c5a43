package model

import "sort"

// Definition is the build-phase container the declarative host API populates.
// It owns step ordering and name uniqueness; runtime semantics live in
// pkg/session. Once sealed, every mutation fails with InvalidStateError.
type Definition struct {
	steps  []Step
	sealed bool
}

// NewDefinition creates an empty wizard definition.
func NewDefinition() *Definition {
	return &Definition{}
}

// AddStep registers a step. Steps without an explicit order receive
// (max existing order) + 1; explicit collisions are resolved by stable sort
// at display time and never fail.
func (d *Definition) AddStep(step Step) error {
	if d.sealed {
		return &InvalidStateError{Op: "addStep"}
	}
	if step.Name == "" {
		return errStepNameRequired
	}
	if step.Type == "" {
		step.Type = StepTypeForm
	}
	for _, existing := range d.steps {
		if existing.Name == step.Name {
			return &DuplicateNameError{Scope: "wizard", Name: step.Name}
		}
	}
	// Steps arriving from loaders carry their controls inline; validate them
	// the same way AddControl does.
	seen := make(map[string]struct{}, len(step.Controls))
	for _, control := range step.Controls {
		if err := control.validate(); err != nil {
			return err
		}
		if step.Type == StepTypeInfo && control.Required {
			return errInfoStepRequired
		}
		if _, dup := seen[control.Name]; dup {
			return &DuplicateNameError{Scope: "step " + step.Name, Name: control.Name}
		}
		seen[control.Name] = struct{}{}
	}
	// A nonzero order on a decoded step counts as explicit even though the
	// loader cannot reach the option-only flag.
	if !step.HasExplicitOrder() && step.Order == 0 {
		max := 0
		for _, existing := range d.steps {
			if existing.Order > max {
				max = existing.Order
			}
		}
		step.Order = max + 1
		step.orderExplicit = true
	}
	d.steps = append(d.steps, step)
	return nil
}

// AddControl registers a control on a previously added step.
func (d *Definition) AddControl(stepName string, control Control) error {
	if d.sealed {
		return &InvalidStateError{Op: "addControl"}
	}
	if err := control.validate(); err != nil {
		return err
	}
	idx := -1
	for i := range d.steps {
		if d.steps[i].Name == stepName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &StepNotFoundError{Step: stepName}
	}
	step := &d.steps[idx]
	if step.Type == StepTypeInfo && control.Required {
		return errInfoStepRequired
	}
	for _, existing := range step.Controls {
		if existing.Name == control.Name {
			return &DuplicateNameError{Scope: "step " + stepName, Name: control.Name}
		}
	}
	step.Controls = append(step.Controls, control)
	return nil
}

// Seal closes the build phase. Called by the session when it starts running;
// idempotent.
func (d *Definition) Seal() { d.sealed = true }

// Sealed reports whether the build phase has been closed.
func (d *Definition) Sealed() bool { return d.sealed }

// Steps returns the steps in display order: ascending order key, insertion
// sequence breaking ties.
func (d *Definition) Steps() []Step {
	out := make([]Step, len(d.steps))
	copy(out, d.steps)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// StepByName returns the named step and whether it exists.
func (d *Definition) StepByName(name string) (Step, bool) {
	for _, step := range d.steps {
		if step.Name == name {
			return step, true
		}
	}
	return Step{}, false
}

// Len reports the number of registered steps.
func (d *Definition) Len() int { return len(d.steps) }
