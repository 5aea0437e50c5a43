package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wizard/pkg/model"
)

// networkWizard builds the canonical three-step session used across tests:
// a network step whose controls chain off useNetwork, a database step, and a
// skippable notes step.
func networkWizard(t *testing.T, options ...Option) *Session {
	t.Helper()

	s := New(options...)
	mustAddStep(t, s, model.MustNewStep("network", model.WithTitle("Network")))
	mustAddControl(t, s, "network",
		model.MustNewControl("useNetwork", model.ControlTypeBoolean, model.WithDefault(false)))
	mustAddControl(t, s, "network",
		model.MustNewControl("protocol", model.ControlTypeSelect,
			model.WithOptions("tcp", "udp"),
			model.Required(),
			model.When("useNetwork == true")))
	mustAddControl(t, s, "network",
		model.MustNewControl("keepAlive", model.ControlTypeBoolean,
			model.When(`protocol == "tcp"`)))

	mustAddStep(t, s, model.MustNewStep("database"))
	mustAddControl(t, s, "database",
		model.MustNewControl("engine", model.ControlTypeSelect,
			model.WithOptions("postgres", "sqlite"),
			model.Required()))

	mustAddStep(t, s, model.MustNewStep("notes", model.Skippable()))
	mustAddControl(t, s, "notes",
		model.MustNewControl("comment", model.ControlTypeString))

	if err := s.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func mustAddStep(t *testing.T, s *Session, step model.Step) {
	t.Helper()
	if err := s.AddStep(step); err != nil {
		t.Fatalf("AddStep %s: %v", step.Name, err)
	}
}

func mustAddControl(t *testing.T, s *Session, step string, control model.Control) {
	t.Helper()
	if err := s.AddControl(step, control); err != nil {
		t.Fatalf("AddControl %s.%s: %v", step, control.Name, err)
	}
}

func mustStart(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func visibleNames(t *testing.T, s *Session) []string {
	t.Helper()
	view, err := s.CurrentView()
	if err != nil {
		t.Fatalf("CurrentView: %v", err)
	}
	var names []string
	for _, control := range view.Controls {
		names = append(names, control.Control.Name)
	}
	return names
}

func TestLifecycleGuards(t *testing.T) {
	t.Parallel()

	s := New()
	if err := s.Start(); !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("Start before Build: %v", err)
	}
	if err := s.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrEmptyWizard) {
		t.Fatalf("Start with zero steps: %v", err)
	}

	var invalid *model.InvalidStateError
	if err := s.AddStep(model.MustNewStep("late")); !errors.As(err, &invalid) {
		t.Fatalf("AddStep after Build: %v", err)
	}
	if err := s.Build(); !errors.As(err, &invalid) {
		t.Fatalf("double Build: %v", err)
	}
}

func TestStartAndCurrentView(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	if s.State() != StateNotStarted {
		t.Fatalf("state before start = %v", s.State())
	}
	if _, err := s.CurrentView(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("CurrentView before Start: %v", err)
	}

	mustStart(t, s)
	if s.State() != StateRunning {
		t.Fatalf("state after start = %v", s.State())
	}

	view, err := s.CurrentView()
	if err != nil {
		t.Fatalf("CurrentView: %v", err)
	}
	if view.Step.Name != "network" || view.Index != 0 || view.Count != 3 {
		t.Fatalf("unexpected view: step=%s index=%d count=%d", view.Step.Name, view.Index, view.Count)
	}
	if view.CanRetreat {
		t.Fatalf("first step must not allow retreat")
	}

	// protocol and keepAlive are hidden while useNetwork defaults to false.
	if diff := cmp.Diff([]string{"useNetwork"}, visibleNames(t, s)); diff != "" {
		t.Fatalf("visible controls mismatch (-want +got):\n%s", diff)
	}

	if err := s.Start(); err == nil {
		t.Fatalf("double Start should fail")
	}
}

func TestSubmitValueRevealsChain(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	if err := s.SubmitValue("useNetwork", true); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if diff := cmp.Diff([]string{"useNetwork", "protocol"}, visibleNames(t, s)); diff != "" {
		t.Fatalf("after enabling network (-want +got):\n%s", diff)
	}

	if err := s.SubmitValue("protocol", "tcp"); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if diff := cmp.Diff([]string{"useNetwork", "protocol", "keepAlive"}, visibleNames(t, s)); diff != "" {
		t.Fatalf("after selecting tcp (-want +got):\n%s", diff)
	}
}

func TestHideCollapsesChainAndPreservesValues(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	for _, submit := range []struct {
		control string
		value   any
	}{
		{"useNetwork", true},
		{"protocol", "tcp"},
		{"keepAlive", true},
	} {
		if err := s.SubmitValue(submit.control, submit.value); err != nil {
			t.Fatalf("SubmitValue %s: %v", submit.control, err)
		}
	}

	// Hiding the root collapses the whole chain in one command.
	if err := s.SubmitValue("useNetwork", false); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if diff := cmp.Diff([]string{"useNetwork"}, visibleNames(t, s)); diff != "" {
		t.Fatalf("chain should collapse (-want +got):\n%s", diff)
	}
	if _, ok := s.Values()["network.protocol"]; ok {
		t.Fatalf("hidden control must not appear in Values")
	}

	// Re-enabling restores the retained values and the full chain.
	if err := s.SubmitValue("useNetwork", true); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if diff := cmp.Diff([]string{"useNetwork", "protocol", "keepAlive"}, visibleNames(t, s)); diff != "" {
		t.Fatalf("chain should restore (-want +got):\n%s", diff)
	}
	view, err := s.CurrentView()
	if err != nil {
		t.Fatalf("CurrentView: %v", err)
	}
	for _, control := range view.Controls {
		if control.Control.Name == "protocol" && control.Value != "tcp" {
			t.Fatalf("hidden value should be retained, got %v", control.Value)
		}
	}
}

func TestSubmitValueTypeMismatchRetainsPrior(t *testing.T) {
	t.Parallel()

	var changes int
	s := networkWizard(t, WithObserver(func(e Event) {
		if e.Kind == EventValueChanged {
			changes++
		}
	}))
	mustStart(t, s)

	var mismatch *model.TypeMismatchError
	if err := s.SubmitValue("useNetwork", "yes"); !errors.As(err, &mismatch) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if changes != 0 {
		t.Fatalf("failed submission must not notify, got %d events", changes)
	}

	view, err := s.CurrentView()
	if err != nil {
		t.Fatalf("CurrentView: %v", err)
	}
	if view.Controls[0].Value != false {
		t.Fatalf("prior value should be retained, got %v", view.Controls[0].Value)
	}
}

func TestSubmitValueUnknownControl(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	var notFound *ControlNotFoundError
	if err := s.SubmitValue("engine", "postgres"); !errors.As(err, &notFound) {
		t.Fatalf("controls on other steps must not be addressable, got %v", err)
	}
}

func TestAdvanceBlockedByValidation(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	// Enabling network makes protocol visible, required, and empty.
	if err := s.SubmitValue("useNetwork", true); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}

	var blocked *ValidationBlockedError
	if err := s.Advance(); !errors.As(err, &blocked) {
		t.Fatalf("expected ValidationBlockedError, got %v", err)
	}
	if blocked.Step != "network" || len(blocked.Failures) != 1 {
		t.Fatalf("unexpected failure detail: %+v", blocked)
	}
	if s.State() != StateRunning {
		t.Fatalf("blocked advance must not change state")
	}

	if err := s.SubmitValue("protocol", "udp"); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance after fixing: %v", err)
	}
	view, err := s.CurrentView()
	if err != nil {
		t.Fatalf("CurrentView: %v", err)
	}
	if view.Step.Name != "database" {
		t.Fatalf("expected database step, got %s", view.Step.Name)
	}
}

func TestAdvanceHiddenInvalidControlDoesNotBlock(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	// protocol is required but hidden, so the step gate ignores it.
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance with hidden required control: %v", err)
	}
}

func TestRetreatNeverValidates(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	if err := s.Retreat(); !errors.Is(err, ErrAtFirstStep) {
		t.Fatalf("Retreat on first step: %v", err)
	}

	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	// database.engine is required and empty: the step is invalid, yet going
	// back must succeed.
	if err := s.Retreat(); err != nil {
		t.Fatalf("Retreat from invalid step: %v", err)
	}
	view, err := s.CurrentView()
	if err != nil {
		t.Fatalf("CurrentView: %v", err)
	}
	if view.Step.Name != "network" {
		t.Fatalf("expected network step, got %s", view.Step.Name)
	}
}

func TestJumpToRules(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	var illegal *IllegalJumpError
	if err := s.JumpTo("notes"); !errors.As(err, &illegal) {
		t.Fatalf("forward jump to unvisited step: %v", err)
	}
	var notFound *model.StepNotFoundError
	if err := s.JumpTo("ghost"); !errors.As(err, &notFound) {
		t.Fatalf("jump to unknown step: %v", err)
	}

	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.JumpTo("network"); err != nil {
		t.Fatalf("jump back: %v", err)
	}
	// database was departed via Advance, so a forward jump to it is legal.
	if err := s.JumpTo("database"); err == nil {
		t.Fatalf("database was never departed; forward jump should fail")
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.SubmitValue("engine", "sqlite"); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.JumpTo("network"); err != nil {
		t.Fatalf("jump back two steps: %v", err)
	}
	if err := s.JumpTo("database"); err != nil {
		t.Fatalf("forward jump to departed step: %v", err)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel before start: %v", err)
	}
	if s.State() != StateCancelled {
		t.Fatalf("state = %v", s.State())
	}
	if err := s.Cancel(); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("Cancel twice: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("Start after cancel: %v", err)
	}
	if _, err := s.Finish(); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("Finish after cancel: %v", err)
	}
}

func TestAdvancePastLastStepCompletes(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	if err := s.Advance(); err != nil {
		t.Fatalf("Advance network: %v", err)
	}
	if err := s.SubmitValue("engine", "postgres"); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance database: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance notes: %v", err)
	}
	if s.State() != StateCompleted {
		t.Fatalf("state = %v", s.State())
	}
	if err := s.Advance(); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("Advance after completion: %v", err)
	}
}

func TestFinishSnapshotIncludesOnlyEverVisible(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	if err := s.SubmitValue("useNetwork", true); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if err := s.SubmitValue("protocol", "udp"); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	// keepAlive requires tcp; it never became visible.
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.SubmitValue("engine", "postgres"); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	snap, err := s.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if s.State() != StateCompleted {
		t.Fatalf("state = %v", s.State())
	}

	if _, ok := snap.Value("network", "keepAlive"); ok {
		t.Fatalf("never-visible control must be excluded from the snapshot")
	}
	if value, ok := snap.Value("network", "protocol"); !ok || value != "udp" {
		t.Fatalf("protocol entry = %v, %v", value, ok)
	}

	// Entries come in step-then-declaration order.
	var order []string
	for _, entry := range snap.Entries {
		order = append(order, entry.Step+"."+entry.Control)
	}
	want := []string{"network.useNetwork", "network.protocol", "database.engine", "notes.comment"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("snapshot order mismatch (-want +got):\n%s", diff)
	}
}

func TestFinishSnapshotKeepsOnceVisibleHiddenValue(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	// Reveal the chain, set values, then hide it again before finishing.
	for _, submit := range []struct {
		control string
		value   any
	}{
		{"useNetwork", true},
		{"protocol", "tcp"},
		{"keepAlive", true},
		{"useNetwork", false},
	} {
		if err := s.SubmitValue(submit.control, submit.value); err != nil {
			t.Fatalf("SubmitValue %s: %v", submit.control, err)
		}
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.SubmitValue("engine", "postgres"); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}

	snap, err := s.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// protocol was visible once, so its retained value survives into the
	// snapshot even though it is hidden at finish time.
	if value, ok := snap.Value("network", "protocol"); !ok || value != "tcp" {
		t.Fatalf("once-visible entry = %v, %v", value, ok)
	}
}

func TestFinishBlockedByRemainingStep(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	// database.engine is required and unset, so finishing from step one fails.
	var blocked *ValidationBlockedError
	if _, err := s.Finish(); !errors.As(err, &blocked) {
		t.Fatalf("expected ValidationBlockedError, got %v", err)
	}
	if blocked.Step != "database" {
		t.Fatalf("blocking step = %q", blocked.Step)
	}
	if s.State() != StateRunning {
		t.Fatalf("failed finish must not change state")
	}
}

func TestFinishFromEarlierStepWhenRemainingPass(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.SubmitValue("engine", "sqlite"); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if err := s.JumpTo("network"); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}

	// All remaining steps pass their gates, so finishing from step one works.
	if _, err := s.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if s.State() != StateCompleted {
		t.Fatalf("state = %v", s.State())
	}
}

func TestObserverEvents(t *testing.T) {
	t.Parallel()

	var events []Event
	s := networkWizard(t, WithObserver(func(e Event) {
		events = append(events, e)
	}))

	mustStart(t, s)
	if err := s.SubmitValue("useNetwork", true); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if err := s.SubmitValue("protocol", "tcp"); err != nil {
		t.Fatalf("SubmitValue: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	want := []Event{
		{Kind: EventNavigated, Step: "network"},
		{Kind: EventValueChanged, Step: "network", Control: "useNetwork"},
		{Kind: EventValueChanged, Step: "network", Control: "protocol"},
		{Kind: EventNavigated, Step: "database"},
		{Kind: EventCancelled, Step: "database"},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("event stream mismatch (-want +got):\n%s", diff)
	}
}

func TestViewProgress(t *testing.T) {
	t.Parallel()

	s := networkWizard(t)
	mustStart(t, s)

	view, err := s.CurrentView()
	if err != nil {
		t.Fatalf("CurrentView: %v", err)
	}
	if got := view.Progress(); got <= 0.33 || got >= 0.34 {
		t.Fatalf("Progress = %v", got)
	}
	if (View{}).Progress() != 0 {
		t.Fatalf("empty view progress should be 0")
	}
}

func TestSnapshotMap(t *testing.T) {
	t.Parallel()

	snap := Snapshot{Entries: []Entry{
		{Step: "network", Control: "useNetwork", Value: true},
		{Step: "database", Control: "engine", Value: "postgres"},
	}}
	want := map[string]map[string]any{
		"network":  {"useNetwork": true},
		"database": {"engine": "postgres"},
	}
	if diff := cmp.Diff(want, snap.Map()); diff != "" {
		t.Fatalf("Map mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRejectsCycles(t *testing.T) {
	t.Parallel()

	s := New()
	mustAddStep(t, s, model.MustNewStep("one"))
	mustAddControl(t, s, "one", model.MustNewControl("a", model.ControlTypeBoolean, model.When("b")))
	mustAddControl(t, s, "one", model.MustNewControl("b", model.ControlTypeBoolean, model.When("a")))

	if err := s.Build(); err == nil {
		t.Fatalf("Build should reject cyclic dependencies")
	}
}
