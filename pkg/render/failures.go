package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-wizard/pkg/session"
)

// FailureMessages flattens a blocked-navigation error into display messages
// keyed by control path. Non-validation errors yield nil so callers can fall
// back to generic error rendering.
func FailureMessages(err error) map[string][]string {
	var blocked *session.ValidationBlockedError
	if !errors.As(err, &blocked) {
		return nil
	}
	out := make(map[string][]string, len(blocked.Failures))
	for _, failure := range blocked.Failures {
		messages := MergeMessages(out[failure.Control], failure.Message)
		if len(messages) == 0 {
			continue
		}
		out[failure.Control] = messages
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MergeMessages concatenates and normalises message slices, trimming
// whitespace and removing duplicates while preserving order.
func MergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)

	out := make([]string, 0, len(combined))
	seen := make(map[string]struct{}, len(combined))
	for _, message := range combined {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// StepValues filters a path-keyed value map down to the controls of one step,
// re-keyed by bare control name. Renderers use it to apply RunOptions.Values
// as each step becomes active.
func StepValues(values map[string]any, step string) map[string]any {
	if len(values) == 0 {
		return nil
	}
	prefix := step + "."
	out := make(map[string]any)
	for path, value := range values {
		if strings.HasPrefix(path, prefix) {
			out[strings.TrimPrefix(path, prefix)] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
