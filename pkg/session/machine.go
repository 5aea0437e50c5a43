package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-wizard/pkg/validation"
)

// State enumerates the navigation machine's states. While StateRunning the
// session additionally carries the current step index.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the state accepts no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

var (
	// ErrEmptyWizard rejects starting a wizard with zero steps.
	ErrEmptyWizard = errors.New("session: wizard has no steps")
	// ErrNotBuilt rejects run-phase commands before Build has been called.
	ErrNotBuilt = errors.New("session: build has not been called")
	// ErrNotStarted rejects run-phase commands before Start.
	ErrNotStarted = errors.New("session: wizard has not started")
	// ErrAtFirstStep rejects Retreat from the first step.
	ErrAtFirstStep = errors.New("session: already at the first step")
	// ErrTerminalState rejects any transition from Completed or Cancelled.
	ErrTerminalState = errors.New("session: session has ended")
)

// ValidationBlockedError rejects a forward transition out of a step whose
// visible controls do not all pass validation. The session state is unchanged.
type ValidationBlockedError struct {
	Step     string
	Failures []validation.Result
}

func (e *ValidationBlockedError) Error() string {
	messages := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		messages = append(messages, failure.Message)
	}
	return fmt.Sprintf("session: step %q blocked by validation: %s", e.Step, strings.Join(messages, "; "))
}

// IllegalJumpError rejects a jump to a step that is neither at-or-before the
// cursor nor previously departed.
type IllegalJumpError struct {
	Target string
}

func (e *IllegalJumpError) Error() string {
	return fmt.Sprintf("session: cannot jump forward to unvisited step %q", e.Target)
}

// ControlNotFoundError reports a value submission against a control absent
// from the current step.
type ControlNotFoundError struct {
	Step    string
	Control string
}

func (e *ControlNotFoundError) Error() string {
	return fmt.Sprintf("session: step %q has no control %q", e.Step, e.Control)
}

// EventKind tags change notifications delivered to observers.
type EventKind string

const (
	// EventValueChanged follows a successful SubmitValue, after all cascading
	// dependency and validation recomputation has settled.
	EventValueChanged EventKind = "value-changed"
	// EventNavigated follows a successful Start, Advance, Retreat, or JumpTo.
	EventNavigated EventKind = "navigated"
	// EventCompleted follows the transition into StateCompleted.
	EventCompleted EventKind = "completed"
	// EventCancelled follows the transition into StateCancelled.
	EventCancelled EventKind = "cancelled"
)

// Event describes one successful state mutation. Step is the active step
// after the mutation; Control is set for value changes only.
type Event struct {
	Kind    EventKind
	Step    string
	Control string
}

// Observer receives change notifications so the rendering layer can
// resynchronise. Observers run synchronously on the session's single thread
// and must not issue commands re-entrantly.
type Observer func(Event)
