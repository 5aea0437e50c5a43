package model

// ControlType is the closed enum of value kinds a control can hold. A
// control's type is fixed at registration and never changes for the lifetime
// of the session.
type ControlType string

const (
	ControlTypeString      ControlType = "string"
	ControlTypeBoolean     ControlType = "boolean"
	ControlTypeInteger     ControlType = "integer"
	ControlTypeNumber      ControlType = "number"
	ControlTypeSelect      ControlType = "select"
	ControlTypeMultiSelect ControlType = "multiselect"
)

// StepType distinguishes pages that collect input from information-only
// pages. Info steps may not contain required controls.
type StepType string

const (
	StepTypeForm StepType = "form"
	StepTypeInfo StepType = "info"
)

// Control models a single input element inside a step. Struct fields are
// annotated so loaders and renderers can serialise them directly.
type Control struct {
	Name        string      `json:"name" yaml:"name"`
	Type        ControlType `json:"type" yaml:"type"`
	Label       string      `json:"label,omitempty" yaml:"label,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Help        string      `json:"help,omitempty" yaml:"help,omitempty"`
	Required    bool        `json:"required" yaml:"required"`
	Secret      bool        `json:"secret,omitempty" yaml:"secret,omitempty"`
	Default     any         `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []string    `json:"options,omitempty" yaml:"options,omitempty"`

	// Pattern is the raw validation expression. Constructors compile it once
	// to reject invalid patterns at build time; the compiled form is cached by
	// the validation engine.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// When is the dependency expression controlling visibility. Empty means
	// always visible. The expression grammar lives in pkg/rules.
	When string `json:"when,omitempty" yaml:"when,omitempty"`

	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
}

// Step is a named, ordered page of the wizard holding zero or more controls.
type Step struct {
	Name        string    `json:"name" yaml:"name"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Type        StepType  `json:"type" yaml:"type"`
	Skippable   bool      `json:"skippable,omitempty" yaml:"skippable,omitempty"`
	Controls    []Control `json:"controls,omitempty" yaml:"controls,omitempty"`

	// Order is the ascending display sort key. Ties are broken by insertion
	// sequence; values need not be contiguous.
	Order int `json:"order" yaml:"order"`

	// orderExplicit records whether Order was supplied by the caller or is
	// pending auto-assignment by the definition.
	orderExplicit bool
}

// Path is the canonical "step.control" identifier used for value maps,
// dependency references, and validation results.
func Path(step, control string) string {
	return step + "." + control
}
