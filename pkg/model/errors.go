package model

import (
	"errors"
	"fmt"
)

// Build-phase failures are fatal and always name the offending identifier so
// host scripts can point at the exact declaration.

// DuplicateNameError reports a name collision: a control registered twice in
// one step, or a step registered twice in one wizard.
type DuplicateNameError struct {
	Scope string // owning step name, or "wizard" for step collisions
	Name  string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("model: duplicate name %q in %s", e.Name, e.Scope)
}

// InvalidPatternError reports a validation pattern that does not compile.
type InvalidPatternError struct {
	Control string
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("model: control %q: invalid pattern %q: %v", e.Control, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// StepNotFoundError reports a control registration against an unknown step.
type StepNotFoundError struct {
	Step string
}

func (e *StepNotFoundError) Error() string {
	return fmt.Sprintf("model: step %q not found", e.Step)
}

// TypeMismatchError reports a submitted value whose semantic type disagrees
// with the control's declared type. The prior value is always retained.
type TypeMismatchError struct {
	Control string
	Want    ControlType
	Got     string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("model: control %q expects %s, got %s", e.Control, e.Want, e.Got)
}

// InvalidStateError reports a build-phase call issued after the run phase has
// begun.
type InvalidStateError struct {
	Op string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("model: %s: build phase is closed", e.Op)
}

var (
	errControlNameRequired = errors.New("model: control name is required")
	errStepNameRequired    = errors.New("model: step name is required")
	errUnknownControlType  = errors.New("model: unknown control type")
	errOptionsRequired     = errors.New("model: select controls require options")
	errInfoStepRequired    = errors.New("model: info steps cannot hold required controls")
)
