package summary

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-wizard/pkg/session"
)

func sampleSnapshot() session.Snapshot {
	return session.Snapshot{Entries: []session.Entry{
		{Step: "network", Control: "useNetwork", Value: true},
		{Step: "network", Control: "protocol", Value: "tcp"},
		{Step: "database", Control: "regions", Value: []string{"eu", "us"}},
		{Step: "notes", Control: "comment", Value: nil},
	}}
}

func TestReceipt(t *testing.T) {
	t.Parallel()

	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	if err := engine.Receipt(&buf, "Provision summary", sampleSnapshot()); err != nil {
		t.Fatalf("Receipt: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Provision summary",
		"network.useNetwork = yes",
		"network.protocol = tcp",
		"database.regions = eu, us",
		"notes.comment = (unset)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("receipt missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStringCustomTemplate(t *testing.T) {
	t.Parallel()

	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tpl := `engine={{ values.network.protocol }} count={{ entries|length }}`
	out, err := engine.RenderString(tpl, Context("x", sampleSnapshot()))
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if out != "engine=tcp count=4" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderStringParseError(t *testing.T) {
	t.Parallel()

	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := engine.RenderString(`{% for %}`, nil); err == nil {
		t.Fatalf("bad template should fail to parse")
	}
}

func TestRenderTemplateFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"receipt.tpl": {Data: []byte(`title: {{ title }}`)},
	}
	engine, err := New(WithFS(fsys))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := engine.RenderTemplate("receipt.tpl", map[string]any{"title": "done"})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if out != "title: done" {
		t.Fatalf("unexpected output: %q", out)
	}

	// Second render comes from the cache and must match.
	again, err := engine.RenderTemplate("receipt.tpl", map[string]any{"title": "done"})
	if err != nil || again != out {
		t.Fatalf("cached render mismatch: %q %v", again, err)
	}
}

func TestRenderDispatchesOnMarkup(t *testing.T) {
	t.Parallel()

	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := engine.Render(`hello {{ name }}`, map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "hello ada" {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := engine.Render("missing.tpl", nil); err == nil {
		t.Fatalf("unknown named template should fail")
	}
}

func TestGlobals(t *testing.T) {
	t.Parallel()

	engine, err := New(WithGlobals(map[string]any{"app": "wizard"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := engine.RenderString(`{{ app }}`, nil)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if out != "wizard" {
		t.Fatalf("global not applied: %q", out)
	}
}
