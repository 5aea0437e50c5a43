package wizard

import (
	"context"
	"fmt"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-wizard/pkg/loader"
	"github.com/goliatone/go-wizard/pkg/render"
	"github.com/goliatone/go-wizard/pkg/renderers/teaui"
	"github.com/goliatone/go-wizard/pkg/renderers/tui"
	"github.com/goliatone/go-wizard/pkg/session"
)

// Session aliases the runtime aggregate so quick-start callers only import
// the root package.
type Session = session.Session

// Snapshot is the value set a finished session hands back.
type Snapshot = session.Snapshot

// View is the render contract for the active step.
type View = session.View

// Document is a parsed declarative wizard definition.
type Document = loader.Document

// RunOptions carries per-run renderer configuration such as seeded values
// and theme selection.
type RunOptions = render.RunOptions

// Event and EventKind re-export the observer notification types.
type (
	Event     = session.Event
	EventKind = session.EventKind
)

// Observer notification kinds.
const (
	EventValueChanged = session.EventValueChanged
	EventNavigated    = session.EventNavigated
	EventCompleted    = session.EventCompleted
	EventCancelled    = session.EventCancelled
)

// New creates an empty session in the build phase.
func New(options ...session.Option) *session.Session {
	return session.New(options...)
}

// WithObserver forwards session change notifications to the observer.
func WithObserver(observer session.Observer) session.Option {
	return session.WithObserver(observer)
}

// Load parses a YAML or JSON definition payload.
func Load(data []byte) (loader.Document, error) {
	return loader.Parse(data)
}

// LoadFile parses a definition file from disk.
func LoadFile(path string) (loader.Document, error) {
	return loader.LoadFile(path)
}

// Renderers builds a registry with the built-in terminal renderers: "tui"
// (survey prompts) and "tea" (full-screen bubbletea).
func Renderers() (*render.Registry, error) {
	registry := render.NewRegistry()
	surveyRenderer, err := tui.New()
	if err != nil {
		return nil, err
	}
	if err := registry.Register(surveyRenderer); err != nil {
		return nil, err
	}
	if err := registry.Register(teaui.New()); err != nil {
		return nil, err
	}
	return registry, nil
}

// Run materialises the document into a session and drives it with the named
// built-in renderer. It is the simplest entry point for hosts that just want
// the collected values.
func Run(ctx context.Context, doc loader.Document, rendererName string, options RunOptions, sessionOptions ...session.Option) (session.Snapshot, error) {
	registry, err := Renderers()
	if err != nil {
		return session.Snapshot{}, err
	}
	renderer, err := registry.Get(rendererName)
	if err != nil {
		return session.Snapshot{}, err
	}
	s, err := doc.Session(sessionOptions...)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("wizard: materialise %q: %w", doc.Name, err)
	}
	return renderer.Run(ctx, s, options)
}

// ResolveTheme resolves a go-theme selection into the renderer configuration
// RunOptions carries. A nil selector yields a nil config, which renderers
// treat as default styling.
func ResolveTheme(selector theme.ThemeSelector, name, variant string) (*theme.RendererConfig, error) {
	return render.ResolveTheme(selector, name, variant)
}
