// Package session hosts the wizard aggregate root: the single object the
// declarative build API and the rendering layer interact with. A session is
// single-threaded and cooperative: each command runs to completion,
// including all cascading dependency and validation recomputation, before the
// next is accepted.
package session

import (
	"github.com/goliatone/go-wizard/pkg/depgraph"
	"github.com/goliatone/go-wizard/pkg/model"
	"github.com/goliatone/go-wizard/pkg/validation"
)

// Option configures a session at construction time.
type Option func(*Session)

// WithObserver subscribes a change-notification callback invoked after every
// successful state mutation.
func WithObserver(observer Observer) Option {
	return func(s *Session) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

// Session owns the step collection, the live value map, the dependency
// graph, and the navigation cursor for one wizard run.
type Session struct {
	def       *model.Definition
	observers []Observer

	// Populated by Build.
	steps    []model.Step
	graph    *depgraph.Graph
	checkers map[string]*validation.Checker

	values      map[string]any // keyed by "step.control"; retains hidden values
	visible     map[string]bool
	everVisible map[string]struct{}
	results     map[string]validation.Result

	state    State
	cursor   int
	departed []bool
	built    bool
}

// New creates an empty session in the build phase.
func New(options ...Option) *Session {
	s := &Session{
		def:         model.NewDefinition(),
		checkers:    make(map[string]*validation.Checker),
		values:      make(map[string]any),
		visible:     make(map[string]bool),
		everVisible: make(map[string]struct{}),
		results:     make(map[string]validation.Result),
		state:       StateNotStarted,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// AddStep registers a step. Fails with InvalidStateError after Build.
func (s *Session) AddStep(step model.Step) error {
	if s.built {
		return &model.InvalidStateError{Op: "addStep"}
	}
	return s.def.AddStep(step)
}

// AddControl registers a control on a previously added step.
func (s *Session) AddControl(stepName string, control model.Control) error {
	if s.built {
		return &model.InvalidStateError{Op: "addControl"}
	}
	return s.def.AddControl(stepName, control)
}

// Build closes the build phase: it fixes step order, compiles validation
// rules, resolves the dependency graph (including the one-time cycle check),
// seeds defaults, and computes initial visibility and validation state.
// All failures are fatal and carry the offending identifier.
func (s *Session) Build() error {
	if s.built {
		return &model.InvalidStateError{Op: "build"}
	}

	steps := s.def.Steps()
	graph, err := depgraph.Build(steps)
	if err != nil {
		return err
	}

	checkers := make(map[string]*validation.Checker)
	for _, step := range steps {
		for _, control := range step.Controls {
			path := model.Path(step.Name, control.Name)
			checker, err := validation.NewChecker(path, control)
			if err != nil {
				return err
			}
			checkers[path] = checker
		}
	}

	s.steps = steps
	s.graph = graph
	s.checkers = checkers
	s.departed = make([]bool, len(steps))
	s.def.Seal()
	s.built = true

	// Seed defaults, then settle visibility in dependency order so chained
	// predicates observe each other's resolved state.
	for _, step := range steps {
		for _, control := range step.Controls {
			path := model.Path(step.Name, control.Name)
			if control.Default != nil {
				s.values[path] = control.Default
			}
			s.visible[path] = true
		}
	}
	for _, path := range graph.Conditional() {
		visible, err := s.evalVisibility(path)
		if err != nil {
			return err
		}
		s.visible[path] = visible
	}
	for _, step := range steps {
		for _, control := range step.Controls {
			path := model.Path(step.Name, control.Name)
			if s.visible[path] {
				s.everVisible[path] = struct{}{}
			}
			s.results[path] = s.checkers[path].Check(s.values[path], s.visible[path])
		}
	}
	return nil
}

// Built reports whether the build phase has been closed.
func (s *Session) Built() bool { return s.built }

// State returns the navigation state.
func (s *Session) State() State { return s.state }

// StepCount returns the number of steps in display order.
func (s *Session) StepCount() int { return len(s.steps) }

// Start transitions NotStarted → OnStep(0).
func (s *Session) Start() error {
	if !s.built {
		return ErrNotBuilt
	}
	if s.state.Terminal() {
		return ErrTerminalState
	}
	if s.state == StateRunning {
		return &model.InvalidStateError{Op: "start"}
	}
	if len(s.steps) == 0 {
		return ErrEmptyWizard
	}
	s.state = StateRunning
	s.cursor = 0
	s.notify(Event{Kind: EventNavigated, Step: s.steps[0].Name})
	return nil
}

// CurrentView returns the active step's visible controls with their current
// values and validation state.
func (s *Session) CurrentView() (View, error) {
	if err := s.requireRunning(); err != nil {
		return View{}, err
	}
	step := s.steps[s.cursor]
	view := View{
		Step:       step,
		Index:      s.cursor,
		Count:      len(s.steps),
		Valid:      s.stepValid(s.cursor),
		CanRetreat: s.cursor > 0,
	}
	for _, control := range step.Controls {
		path := model.Path(step.Name, control.Name)
		if !s.visible[path] {
			continue
		}
		view.Controls = append(view.Controls, ControlView{
			Control: control,
			Path:    path,
			Value:   s.values[path],
			Result:  s.results[path],
		})
	}
	return view, nil
}

// SubmitValue records a value for a control on the active step, then
// re-evaluates affected dependencies and validation. On TypeMismatchError
// the prior value is retained and no notification fires.
func (s *Session) SubmitValue(controlName string, value any) error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	step := s.steps[s.cursor]
	control, ok := step.ControlByName(controlName)
	if !ok {
		return &ControlNotFoundError{Step: step.Name, Control: controlName}
	}
	if err := model.CheckValue(control, value); err != nil {
		return err
	}

	path := model.Path(step.Name, controlName)
	s.values[path] = value
	if err := s.recompute(path); err != nil {
		return err
	}
	s.notify(Event{Kind: EventValueChanged, Step: step.Name, Control: controlName})
	return nil
}

// Advance departs the active step when it is skippable or passes validation,
// moving to the next step or completing the wizard.
func (s *Session) Advance() error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	if err := s.gate(s.cursor); err != nil {
		return err
	}
	s.departed[s.cursor] = true
	if s.cursor+1 >= len(s.steps) {
		s.state = StateCompleted
		s.notify(Event{Kind: EventCompleted, Step: s.steps[s.cursor].Name})
		return nil
	}
	s.cursor++
	s.notify(Event{Kind: EventNavigated, Step: s.steps[s.cursor].Name})
	return nil
}

// Retreat moves back one step unconditionally; no validation gate applies
// going backward, and the departed step's validation state is preserved.
func (s *Session) Retreat() error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	if s.cursor == 0 {
		return ErrAtFirstStep
	}
	s.cursor--
	s.notify(Event{Kind: EventNavigated, Step: s.steps[s.cursor].Name})
	return nil
}

// JumpTo moves directly to a step at or before the cursor, or to any step
// previously departed via Advance.
func (s *Session) JumpTo(stepName string) error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	target := -1
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			target = i
			break
		}
	}
	if target < 0 {
		return &model.StepNotFoundError{Step: stepName}
	}
	if target > s.cursor && !s.departed[target] {
		return &IllegalJumpError{Target: stepName}
	}
	s.cursor = target
	s.notify(Event{Kind: EventNavigated, Step: stepName})
	return nil
}

// Cancel transitions any non-terminal state to Cancelled.
func (s *Session) Cancel() error {
	if s.state.Terminal() {
		return ErrTerminalState
	}
	step := ""
	if s.state == StateRunning {
		step = s.steps[s.cursor].Name
	}
	s.state = StateCancelled
	s.notify(Event{Kind: EventCancelled, Step: step})
	return nil
}

// Finish completes the wizard and returns the final value snapshot. It is
// legal when the active step passes its gate and every remaining step is
// skippable or already valid; the common case is the last step once valid.
func (s *Session) Finish() (Snapshot, error) {
	if err := s.requireRunning(); err != nil {
		return Snapshot{}, err
	}
	for i := s.cursor; i < len(s.steps); i++ {
		if err := s.gate(i); err != nil {
			return Snapshot{}, err
		}
	}
	s.departed[s.cursor] = true
	s.state = StateCompleted
	snapshot := s.snapshot()
	s.notify(Event{Kind: EventCompleted, Step: s.steps[s.cursor].Name})
	return snapshot, nil
}

// Values returns the live values of currently visible controls. Hidden
// controls retain their last value internally but are excluded here.
func (s *Session) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for path, value := range s.values {
		if s.visible[path] && value != nil {
			out[path] = value
		}
	}
	return out
}

func (s *Session) requireRunning() error {
	if !s.built {
		return ErrNotBuilt
	}
	if s.state.Terminal() {
		return ErrTerminalState
	}
	if s.state == StateNotStarted {
		return ErrNotStarted
	}
	return nil
}

// gate reports whether step i may be departed forward: skippable steps pass
// unconditionally, otherwise every visible control must validate.
func (s *Session) gate(i int) error {
	step := s.steps[i]
	if step.Skippable || s.stepValid(i) {
		return nil
	}
	var failures []validation.Result
	for _, control := range step.Controls {
		path := model.Path(step.Name, control.Name)
		if result := s.results[path]; s.visible[path] && !result.OK {
			failures = append(failures, result)
		}
	}
	return &ValidationBlockedError{Step: step.Name, Failures: failures}
}

func (s *Session) stepValid(i int) bool {
	step := s.steps[i]
	for _, control := range step.Controls {
		path := model.Path(step.Name, control.Name)
		if s.visible[path] && !s.results[path].OK {
			return false
		}
	}
	return true
}

// recompute settles the dependency cascade after a change to path: every
// transitively affected control re-evaluates its predicate in dependency
// order, and validation re-runs for the changed and affected controls.
func (s *Session) recompute(changed string) error {
	affected := s.graph.Affected(changed)
	for _, path := range affected {
		visible, err := s.evalVisibility(path)
		if err != nil {
			return err
		}
		s.visible[path] = visible
		if visible {
			s.everVisible[path] = struct{}{}
		}
	}
	for _, path := range append([]string{changed}, affected...) {
		s.results[path] = s.checkers[path].Check(s.values[path], s.visible[path])
	}
	return nil
}

// evalVisibility resolves a control's predicate against the effective value
// map, in which hidden controls contribute no value. This is what makes
// chains collapse: hiding A empties A for B's predicate, which may hide B,
// which empties B for C, and so on down the (acyclic) graph.
func (s *Session) evalVisibility(path string) (bool, error) {
	pred := s.graph.Predicate(path)
	if pred == nil {
		return true, nil
	}
	effective := make(map[string]any, len(s.values))
	for p, v := range s.values {
		if s.visible[p] {
			effective[p] = v
		}
	}
	return pred.Eval(effective)
}

func (s *Session) snapshot() Snapshot {
	var snap Snapshot
	for _, step := range s.steps {
		for _, control := range step.Controls {
			path := model.Path(step.Name, control.Name)
			if _, ever := s.everVisible[path]; !ever {
				continue
			}
			snap.Entries = append(snap.Entries, Entry{
				Step:    step.Name,
				Control: control.Name,
				Value:   s.values[path],
			})
		}
	}
	return snap
}

func (s *Session) notify(event Event) {
	for _, observer := range s.observers {
		observer(event)
	}
}
