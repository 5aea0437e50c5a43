package depgraph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wizard/pkg/model"
)

func step(name string, controls ...model.Control) model.Step {
	s := model.MustNewStep(name)
	s.Controls = controls
	return s
}

func TestBuildResolvesBareRefsAgainstScope(t *testing.T) {
	t.Parallel()

	steps := []model.Step{
		step("network",
			model.MustNewControl("useNetwork", model.ControlTypeBoolean),
			model.MustNewControl("protocol", model.ControlTypeSelect,
				model.WithOptions("tcp", "udp"),
				model.When("useNetwork == true")),
		),
		step("tuning",
			model.MustNewControl("keepAlive", model.ControlTypeBoolean,
				model.When("protocol == \"tcp\"")),
		),
	}

	g, err := Build(steps)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := g.Dependents("network.useNetwork"); len(got) != 1 || got[0] != "network.protocol" {
		t.Fatalf("Dependents(useNetwork) = %v", got)
	}
	if got := g.Dependents("network.protocol"); len(got) != 1 || got[0] != "tuning.keepAlive" {
		t.Fatalf("Dependents(protocol) = %v", got)
	}
	if g.Predicate("network.useNetwork") != nil {
		t.Fatalf("unconditional control should have nil predicate")
	}
	if g.Predicate("tuning.keepAlive") == nil {
		t.Fatalf("conditional control should have a predicate")
	}
}

func TestBuildQualifiedRefResolvesAnywhere(t *testing.T) {
	t.Parallel()

	steps := []model.Step{
		step("one", model.MustNewControl("mode", model.ControlTypeString)),
		step("two", model.MustNewControl("detail", model.ControlTypeString,
			model.When(`one.mode == "advanced"`))),
	}

	g, err := Build(steps)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := g.Dependents("one.mode"); len(got) != 1 || got[0] != "two.detail" {
		t.Fatalf("Dependents = %v", got)
	}
}

func TestBuildUnknownReference(t *testing.T) {
	t.Parallel()

	steps := []model.Step{
		step("one", model.MustNewControl("detail", model.ControlTypeString,
			model.When("nonexistent == true"))),
	}

	_, err := Build(steps)
	var unknown *UnknownControlError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownControlError, got %v", err)
	}
	if unknown.Ref != "nonexistent" {
		t.Fatalf("expected offending ref, got %q", unknown.Ref)
	}
}

func TestBuildBadExpression(t *testing.T) {
	t.Parallel()

	steps := []model.Step{
		step("one", model.MustNewControl("detail", model.ControlTypeString,
			model.When("a = 1"))),
	}

	_, err := Build(steps)
	var bad *ExpressionError
	if !errors.As(err, &bad) {
		t.Fatalf("expected ExpressionError, got %v", err)
	}
}

func TestBuildDetectsDirectCycle(t *testing.T) {
	t.Parallel()

	steps := []model.Step{
		step("one",
			model.MustNewControl("a", model.ControlTypeBoolean, model.When("b == true")),
			model.MustNewControl("b", model.ControlTypeBoolean, model.When("a == true")),
		),
	}

	_, err := Build(steps)
	var cyclic *CyclicDependencyError
	if !errors.As(err, &cyclic) {
		t.Fatalf("expected CyclicDependencyError, got %v", err)
	}
	if len(cyclic.Cycle) < 3 {
		t.Fatalf("cycle should name its members, got %v", cyclic.Cycle)
	}
}

func TestBuildDetectsLongCycle(t *testing.T) {
	t.Parallel()

	steps := []model.Step{
		step("one",
			model.MustNewControl("a", model.ControlTypeBoolean, model.When("c")),
			model.MustNewControl("b", model.ControlTypeBoolean, model.When("a")),
			model.MustNewControl("c", model.ControlTypeBoolean, model.When("b")),
		),
	}

	_, err := Build(steps)
	var cyclic *CyclicDependencyError
	if !errors.As(err, &cyclic) {
		t.Fatalf("expected CyclicDependencyError, got %v", err)
	}
}

func TestBuildSelfReferenceIsCycle(t *testing.T) {
	t.Parallel()

	steps := []model.Step{
		step("one", model.MustNewControl("a", model.ControlTypeBoolean, model.When("a == true"))),
	}

	_, err := Build(steps)
	var cyclic *CyclicDependencyError
	if !errors.As(err, &cyclic) {
		t.Fatalf("expected CyclicDependencyError, got %v", err)
	}
}

func TestAffectedOrdersChain(t *testing.T) {
	t.Parallel()

	// a <- b <- c <- d: changing a must recompute b before c before d.
	steps := []model.Step{
		step("one",
			model.MustNewControl("a", model.ControlTypeBoolean),
			model.MustNewControl("b", model.ControlTypeBoolean, model.When("a")),
			model.MustNewControl("c", model.ControlTypeBoolean, model.When("b")),
			model.MustNewControl("d", model.ControlTypeBoolean, model.When("c")),
		),
	}

	g, err := Build(steps)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{"one.b", "one.c", "one.d"}
	if diff := cmp.Diff(want, g.Affected("one.a")); diff != "" {
		t.Fatalf("Affected order mismatch (-want +got):\n%s", diff)
	}
	if got := g.Affected("one.d"); len(got) != 0 {
		t.Fatalf("leaf should affect nothing, got %v", got)
	}
}

func TestAffectedDiamond(t *testing.T) {
	t.Parallel()

	// b and c both read a; d reads both b and c. d must come last.
	steps := []model.Step{
		step("one",
			model.MustNewControl("a", model.ControlTypeBoolean),
			model.MustNewControl("b", model.ControlTypeBoolean, model.When("a")),
			model.MustNewControl("c", model.ControlTypeBoolean, model.When("a")),
			model.MustNewControl("d", model.ControlTypeBoolean, model.When("b && c")),
		),
	}

	g, err := Build(steps)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	affected := g.Affected("one.a")
	if len(affected) != 3 {
		t.Fatalf("expected 3 affected controls, got %v", affected)
	}
	if affected[2] != "one.d" {
		t.Fatalf("d must be recomputed last, got %v", affected)
	}
}

func TestConditionalDependencyOrder(t *testing.T) {
	t.Parallel()

	steps := []model.Step{
		step("one",
			model.MustNewControl("c", model.ControlTypeBoolean, model.When("b")),
			model.MustNewControl("b", model.ControlTypeBoolean, model.When("a")),
			model.MustNewControl("a", model.ControlTypeBoolean),
		),
	}

	g, err := Build(steps)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{"one.b", "one.c"}
	if diff := cmp.Diff(want, g.Conditional()); diff != "" {
		t.Fatalf("Conditional order mismatch (-want +got):\n%s", diff)
	}
}
