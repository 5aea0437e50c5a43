// Package model defines the value objects a wizard is assembled from: typed
// controls, named steps, and the declarative definition that collects them
// during the build phase. Constructors validate aggressively so that a
// Control or Step that exists is always usable; runtime components (session,
// renderers) never re-check structural invariants.
package model
