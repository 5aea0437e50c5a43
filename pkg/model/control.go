package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ControlOption configures a control at construction time.
type ControlOption func(*Control)

// WithLabel sets the display label. Controls without a label fall back to
// their name when rendered.
func WithLabel(label string) ControlOption {
	return func(c *Control) { c.Label = label }
}

// WithDescription attaches a longer description shown alongside the control.
func WithDescription(desc string) ControlOption {
	return func(c *Control) { c.Description = desc }
}

// WithHelp attaches inline help text.
func WithHelp(help string) ControlOption {
	return func(c *Control) { c.Help = help }
}

// Required marks the control as mandatory while visible.
func Required() ControlOption {
	return func(c *Control) { c.Required = true }
}

// Secret marks the control for masked display (passwords, tokens).
func Secret() ControlOption {
	return func(c *Control) { c.Secret = true }
}

// WithDefault seeds the control's initial value. The value must match the
// control type; mismatches fail NewControl.
func WithDefault(value any) ControlOption {
	return func(c *Control) { c.Default = value }
}

// WithPattern declares a regular expression the value must match. Invalid
// expressions fail NewControl with InvalidPatternError.
func WithPattern(pattern string) ControlOption {
	return func(c *Control) { c.Pattern = pattern }
}

// WithOptions declares the choice list for select and multiselect controls.
func WithOptions(options ...string) ControlOption {
	return func(c *Control) { c.Options = append([]string(nil), options...) }
}

// When declares the dependency expression gating the control's visibility,
// e.g. `useNetwork == true` or `environment == "prod" && replicas >= 3`.
func When(rule string) ControlOption {
	return func(c *Control) { c.When = strings.TrimSpace(rule) }
}

// WithRange bounds numeric values inclusively. Pass nil to leave a side open.
func WithRange(min, max *float64) ControlOption {
	return func(c *Control) {
		c.Min = min
		c.Max = max
	}
}

// WithLengthRange bounds string length inclusively. Pass nil to leave a side
// open.
func WithLengthRange(min, max *int) ControlOption {
	return func(c *Control) {
		c.MinLength = min
		c.MaxLength = max
	}
}

// NewControl builds and validates a control. The returned value is immutable
// by convention: sessions copy controls and never mutate them.
func NewControl(name string, typ ControlType, options ...ControlOption) (Control, error) {
	control := Control{
		Name: strings.TrimSpace(name),
		Type: typ,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&control)
	}
	if err := control.validate(); err != nil {
		return Control{}, err
	}
	return control, nil
}

// MustNewControl panics on construction failure. Useful for static wizard
// definitions and tests.
func MustNewControl(name string, typ ControlType, options ...ControlOption) Control {
	control, err := NewControl(name, typ, options...)
	if err != nil {
		panic(err)
	}
	return control
}

func (c *Control) validate() error {
	if c.Name == "" {
		return errControlNameRequired
	}
	switch c.Type {
	case ControlTypeString, ControlTypeBoolean, ControlTypeInteger, ControlTypeNumber,
		ControlTypeSelect, ControlTypeMultiSelect:
	default:
		return fmt.Errorf("%w: %q on control %q", errUnknownControlType, c.Type, c.Name)
	}
	if (c.Type == ControlTypeSelect || c.Type == ControlTypeMultiSelect) && len(c.Options) == 0 {
		return fmt.Errorf("%w: %q", errOptionsRequired, c.Name)
	}
	if c.Pattern != "" {
		if _, err := regexp.Compile(c.Pattern); err != nil {
			return &InvalidPatternError{Control: c.Name, Pattern: c.Pattern, Err: err}
		}
	}
	if c.Default != nil {
		if err := CheckValue(*c, c.Default); err != nil {
			return fmt.Errorf("model: control %q: default: %w", c.Name, err)
		}
	}
	return nil
}
