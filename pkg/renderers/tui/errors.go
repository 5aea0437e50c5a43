package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C). The renderer
	// cancels the session before returning it.
	ErrAborted = errors.New("tui: aborted")
	// ErrNotBuilt is returned when Run receives a session still in its build
	// phase.
	ErrNotBuilt = errors.New("tui: session must be built before running")
)
