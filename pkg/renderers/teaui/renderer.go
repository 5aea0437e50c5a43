package teaui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-wizard/pkg/render"
	"github.com/goliatone/go-wizard/pkg/session"
)

var (
	// ErrCancelled signals the user quit the wizard. The session is cancelled
	// before the renderer returns.
	ErrCancelled = errors.New("teaui: cancelled")
	// ErrNotBuilt is returned when Run receives a session still in its build
	// phase.
	ErrNotBuilt = errors.New("teaui: session must be built before running")
)

// Renderer implements render.Renderer on a bubbletea program.
type Renderer struct {
	programOptions []tea.ProgramOption
}

// Option configures the renderer.
type Option func(*Renderer)

// WithProgramOptions appends bubbletea program options, e.g. tea.WithInput
// for tests or tea.WithoutRenderer for headless runs.
func WithProgramOptions(options ...tea.ProgramOption) Option {
	return func(r *Renderer) {
		r.programOptions = append(r.programOptions, options...)
	}
}

// New constructs a bubbletea renderer that runs in the alternate screen.
func New(options ...Option) *Renderer {
	r := &Renderer{
		programOptions: []tea.ProgramOption{tea.WithAltScreen()},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string { return "tea" }

// Run drives the session inside a bubbletea program until it completes or is
// cancelled.
func (r *Renderer) Run(ctx context.Context, s *session.Session, options render.RunOptions) (session.Snapshot, error) {
	if ctx == nil {
		return session.Snapshot{}, errors.New("teaui: context is required")
	}
	if s == nil {
		return session.Snapshot{}, errors.New("teaui: session is required")
	}
	if !s.Built() {
		return session.Snapshot{}, ErrNotBuilt
	}

	programOptions := append([]tea.ProgramOption{tea.WithContext(ctx)}, r.programOptions...)
	if options.Output != nil {
		programOptions = append(programOptions, tea.WithOutput(options.Output))
	}

	program := tea.NewProgram(newWizardModel(s, options), programOptions...)
	final, err := program.Run()
	if err != nil {
		if !s.State().Terminal() {
			_ = s.Cancel()
		}
		return session.Snapshot{}, err
	}

	m, ok := final.(*wizardModel)
	if !ok {
		return session.Snapshot{}, errors.New("teaui: unexpected final model")
	}
	if m.err != nil {
		return session.Snapshot{}, m.err
	}
	if !m.finished {
		return session.Snapshot{}, ErrCancelled
	}
	return m.snapshot, nil
}
