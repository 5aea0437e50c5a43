package model

import (
	"fmt"
	"math"
	"strings"
)

// CheckValue verifies that a value's semantic type agrees with the control's
// declared type. nil is accepted for every type and clears the value. Select
// membership and numeric ranges are validation concerns, not type concerns,
// so they are not checked here.
func CheckValue(control Control, value any) error {
	if value == nil {
		return nil
	}

	mismatch := func() error {
		return &TypeMismatchError{
			Control: control.Name,
			Want:    control.Type,
			Got:     fmt.Sprintf("%T", value),
		}
	}

	switch control.Type {
	case ControlTypeString, ControlTypeSelect:
		if _, ok := value.(string); !ok {
			return mismatch()
		}
	case ControlTypeBoolean:
		if _, ok := value.(bool); !ok {
			return mismatch()
		}
	case ControlTypeInteger:
		switch v := value.(type) {
		case int, int32, int64:
		case float64:
			if v != math.Trunc(v) {
				return mismatch()
			}
		default:
			return mismatch()
		}
	case ControlTypeNumber:
		switch value.(type) {
		case int, int32, int64, float32, float64:
		default:
			return mismatch()
		}
	case ControlTypeMultiSelect:
		switch v := value.(type) {
		case []string:
		case []any:
			for _, item := range v {
				if _, ok := item.(string); !ok {
					return mismatch()
				}
			}
		default:
			return mismatch()
		}
	}
	return nil
}

// IsEmpty reports whether a value counts as unset for required-ness checks.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
