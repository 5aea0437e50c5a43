package session

import (
	"github.com/goliatone/go-wizard/pkg/model"
	"github.com/goliatone/go-wizard/pkg/validation"
)

// ControlView is one visible control plus its live value and validation
// state, the unit the rendering layer draws.
type ControlView struct {
	Control model.Control
	Path    string
	Value   any
	Result  validation.Result
}

// View is the render contract for the active step: its visible controls in
// declaration order, the step's aggregate validity, and progress metadata.
type View struct {
	Step       model.Step
	Index      int
	Count      int
	Valid      bool
	CanRetreat bool
	Controls   []ControlView
}

// Progress reports completion as a fraction in [0, 1] for progress displays.
func (v View) Progress() float64 {
	if v.Count == 0 {
		return 0
	}
	return float64(v.Index+1) / float64(v.Count)
}

// Entry is one control's final value in the finish snapshot.
type Entry struct {
	Step    string `json:"step"`
	Control string `json:"control"`
	Value   any    `json:"value"`
}

// Snapshot is the payload Finish hands to the host: every control that was
// visible and enabled at least once, in step-then-declaration order.
type Snapshot struct {
	Entries []Entry `json:"entries"`
}

// Value looks up a control's final value by step and control name.
func (s Snapshot) Value(step, control string) (any, bool) {
	for _, entry := range s.Entries {
		if entry.Step == step && entry.Control == control {
			return entry.Value, true
		}
	}
	return nil, false
}

// Map folds the snapshot into nested step → control → value maps for hosts
// that prefer dictionary access over ordered entries.
func (s Snapshot) Map() map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, entry := range s.Entries {
		if out[entry.Step] == nil {
			out[entry.Step] = make(map[string]any)
		}
		out[entry.Step][entry.Control] = entry.Value
	}
	return out
}
