package render

import (
	"io"

	theme "github.com/goliatone/go-theme"
)

// RunOptions describe per-run data renderers can use to customise a wizard
// pass without touching the session's build API.
type RunOptions struct {
	// Values pre-populates controls before the first step is shown, keyed by
	// canonical "step.control" paths. Type mismatches fail the run.
	Values map[string]any
	// Output overrides where non-interactive text (info steps, summaries) is
	// written. Defaults to the renderer's own stdout handling when nil.
	Output io.Writer
	// Theme carries a resolved go-theme configuration. Renderers decide which
	// tokens they honour; nil means unthemed output.
	Theme *theme.RendererConfig
	// AutoAdvanceInfo advances through info steps without waiting for an
	// acknowledgement prompt.
	AutoAdvanceInfo bool
}
