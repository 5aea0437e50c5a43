// Package render defines the contract between a wizard session and the
// interactive front ends that drive it, plus a registry for renderer
// discovery and dependency injection.
package render

import (
	"context"

	"github.com/goliatone/go-wizard/pkg/session"
)

// Renderer drives a built session from Start through Finish or Cancel and
// returns the final snapshot. Implementations route every mutation through
// the session's commands; the session stays the single owner of wizard state.
type Renderer interface {
	Name() string
	Run(ctx context.Context, s *session.Session, options RunOptions) (session.Snapshot, error)
}
