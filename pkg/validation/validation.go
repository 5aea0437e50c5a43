// Package validation evaluates per-control and per-step validation rules
// against current values. Evaluation is pure: identical inputs always yield
// identical results, and no state survives between calls beyond the compiled
// pattern cache inside each Checker.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-wizard/pkg/model"
)

// Kind tags the rule a control failed.
type Kind string

const (
	// KindRequired marks an empty value on a required, visible control.
	KindRequired Kind = "required"
	// KindFormat marks a value failing the declared pattern.
	KindFormat Kind = "format"
	// KindRange marks a numeric value outside its declared bounds.
	KindRange Kind = "range"
	// KindLength marks a string outside its declared length bounds.
	KindLength Kind = "length"
	// KindChoice marks a select value outside the declared options.
	KindChoice Kind = "choice"
)

// Result is the outcome of checking one control. Disabled (hidden) controls
// are always valid and carry no failure kind.
type Result struct {
	Control string `json:"control"`
	OK      bool   `json:"ok"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`

	// Pattern carries the original expression on format failures so the
	// rendering layer can show it as a diagnostic.
	Pattern string `json:"pattern,omitempty"`
}

// Checker holds one control's compiled validation rules.
type Checker struct {
	path    string
	control model.Control
	re      *regexp.Regexp
}

// NewChecker compiles the control's rules. Patterns were validated at
// construction time, so a compile failure here indicates a control that
// bypassed NewControl and is surfaced as InvalidPatternError.
func NewChecker(path string, control model.Control) (*Checker, error) {
	checker := &Checker{path: path, control: control}
	if control.Pattern != "" {
		re, err := regexp.Compile(control.Pattern)
		if err != nil {
			return nil, &model.InvalidPatternError{Control: control.Name, Pattern: control.Pattern, Err: err}
		}
		checker.re = re
	}
	return checker, nil
}

// Check evaluates the control against a value. Rule order: visibility gate,
// required-ness, then pattern and range checks.
func (c *Checker) Check(value any, visible bool) Result {
	ok := Result{Control: c.path, OK: true}
	if !visible {
		return ok
	}

	label := c.control.Label
	if label == "" {
		label = c.control.Name
	}

	if model.IsEmpty(value) {
		if c.control.Required {
			return Result{
				Control: c.path,
				Kind:    KindRequired,
				Message: fmt.Sprintf("%s is required", label),
			}
		}
		return ok
	}

	if c.re != nil {
		if !c.re.MatchString(stringValue(value)) {
			return Result{
				Control: c.path,
				Kind:    KindFormat,
				Message: fmt.Sprintf("%s must match %s", label, c.control.Pattern),
				Pattern: c.control.Pattern,
			}
		}
	}

	switch c.control.Type {
	case model.ControlTypeInteger, model.ControlTypeNumber:
		number, isNumber := numberValue(value)
		if isNumber {
			if c.control.Min != nil && number < *c.control.Min {
				return Result{
					Control: c.path,
					Kind:    KindRange,
					Message: fmt.Sprintf("%s must be at least %s", label, formatFloat(*c.control.Min)),
				}
			}
			if c.control.Max != nil && number > *c.control.Max {
				return Result{
					Control: c.path,
					Kind:    KindRange,
					Message: fmt.Sprintf("%s must be at most %s", label, formatFloat(*c.control.Max)),
				}
			}
		}
	case model.ControlTypeString:
		text := stringValue(value)
		if c.control.MinLength != nil && len(text) < *c.control.MinLength {
			return Result{
				Control: c.path,
				Kind:    KindLength,
				Message: fmt.Sprintf("%s must be at least %d characters", label, *c.control.MinLength),
			}
		}
		if c.control.MaxLength != nil && len(text) > *c.control.MaxLength {
			return Result{
				Control: c.path,
				Kind:    KindLength,
				Message: fmt.Sprintf("%s must be at most %d characters", label, *c.control.MaxLength),
			}
		}
	case model.ControlTypeSelect:
		if !containsOption(c.control.Options, stringValue(value)) {
			return Result{
				Control: c.path,
				Kind:    KindChoice,
				Message: fmt.Sprintf("%s must be one of: %s", label, strings.Join(c.control.Options, ", ")),
			}
		}
	case model.ControlTypeMultiSelect:
		for _, item := range stringSlice(value) {
			if !containsOption(c.control.Options, item) {
				return Result{
					Control: c.path,
					Kind:    KindChoice,
					Message: fmt.Sprintf("%s must be one of: %s", label, strings.Join(c.control.Options, ", ")),
				}
			}
		}
	}

	return ok
}

// StepValid reports whether every result passed. A step with no results
// (zero visible controls) is trivially valid.
func StepValid(results []Result) bool {
	for _, result := range results {
		if !result.OK {
			return false
		}
	}
	return true
}

func containsOption(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(value)
	}
}

func stringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringValue(item))
		}
		return out
	default:
		return nil
	}
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
