// Package rules implements the dependency expression language controls use
// to gate their visibility. Expressions compile to a small closed predicate
// AST so the dependency resolver can enumerate referenced controls, detect
// cycles at build time, and re-evaluate cheaply on every value change.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Op enumerates the comparison operators supported by the grammar.
type Op string

const (
	OpEq      Op = "=="
	OpNeq     Op = "!="
	OpLt      Op = "<"
	OpLte     Op = "<="
	OpGt      Op = ">"
	OpGte     Op = ">="
	OpMatches Op = "matches"
)

// Predicate is the closed tagged-variant expression type. Implementations are
// And, Or, Not, Compare, Match, and Truthy; no open-ended callbacks exist so
// evaluation stays pure and enumerable.
type Predicate interface {
	// Eval resolves the predicate against the current value map, keyed by
	// canonical "step.control" paths after Resolve has run.
	Eval(values map[string]any) (bool, error)

	collectRefs(dest map[string]struct{})
	rewriteRefs(fn func(string) (string, error)) (Predicate, error)
}

// And is the conjunction of two predicates; Right is skipped when Left fails.
type And struct {
	Left  Predicate
	Right Predicate
}

func (p And) Eval(values map[string]any) (bool, error) {
	ok, err := p.Left.Eval(values)
	if err != nil || !ok {
		return false, err
	}
	return p.Right.Eval(values)
}

func (p And) collectRefs(dest map[string]struct{}) {
	p.Left.collectRefs(dest)
	p.Right.collectRefs(dest)
}

func (p And) rewriteRefs(fn func(string) (string, error)) (Predicate, error) {
	left, err := p.Left.rewriteRefs(fn)
	if err != nil {
		return nil, err
	}
	right, err := p.Right.rewriteRefs(fn)
	if err != nil {
		return nil, err
	}
	return And{Left: left, Right: right}, nil
}

// Or is the disjunction of two predicates; Right is skipped when Left holds.
type Or struct {
	Left  Predicate
	Right Predicate
}

func (p Or) Eval(values map[string]any) (bool, error) {
	ok, err := p.Left.Eval(values)
	if err != nil || ok {
		return ok, err
	}
	return p.Right.Eval(values)
}

func (p Or) collectRefs(dest map[string]struct{}) {
	p.Left.collectRefs(dest)
	p.Right.collectRefs(dest)
}

func (p Or) rewriteRefs(fn func(string) (string, error)) (Predicate, error) {
	left, err := p.Left.rewriteRefs(fn)
	if err != nil {
		return nil, err
	}
	right, err := p.Right.rewriteRefs(fn)
	if err != nil {
		return nil, err
	}
	return Or{Left: left, Right: right}, nil
}

// Not negates its inner predicate.
type Not struct {
	Inner Predicate
}

func (p Not) Eval(values map[string]any) (bool, error) {
	ok, err := p.Inner.Eval(values)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (p Not) collectRefs(dest map[string]struct{}) { p.Inner.collectRefs(dest) }

func (p Not) rewriteRefs(fn func(string) (string, error)) (Predicate, error) {
	inner, err := p.Inner.rewriteRefs(fn)
	if err != nil {
		return nil, err
	}
	return Not{Inner: inner}, nil
}

// LiteralKind tags the right-hand side of a comparison.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBool
	LitNull
)

// Literal is the constant a control value is compared against.
type Literal struct {
	Kind LiteralKind
	Raw  string
}

// Compare checks a referenced control's value against a literal.
type Compare struct {
	Ref     string
	Op      Op
	Literal Literal
}

func (p Compare) Eval(values map[string]any) (bool, error) {
	value := values[p.Ref]

	switch p.Literal.Kind {
	case LitNull:
		switch p.Op {
		case OpEq:
			return value == nil, nil
		case OpNeq:
			return value != nil, nil
		}
		return false, fmt.Errorf("rules: operator %q not supported for null literal", p.Op)
	case LitBool:
		want := p.Literal.Raw == "true"
		got, _ := coerceBool(value)
		switch p.Op {
		case OpEq:
			return got == want, nil
		case OpNeq:
			return got != want, nil
		}
		return false, fmt.Errorf("rules: operator %q not supported for bool literal", p.Op)
	case LitNumber:
		want, err := strconv.ParseFloat(p.Literal.Raw, 64)
		if err != nil {
			return false, fmt.Errorf("rules: invalid number literal %q", p.Literal.Raw)
		}
		got, ok := coerceNumber(value)
		if !ok {
			// Unset or non-numeric values only satisfy inequality.
			return p.Op == OpNeq, nil
		}
		switch p.Op {
		case OpEq:
			return got == want, nil
		case OpNeq:
			return got != want, nil
		case OpLt:
			return got < want, nil
		case OpLte:
			return got <= want, nil
		case OpGt:
			return got > want, nil
		case OpGte:
			return got >= want, nil
		}
		return false, fmt.Errorf("rules: operator %q not supported for number literal", p.Op)
	default: // LitString
		want := p.Literal.Raw
		got := coerceString(value)
		switch p.Op {
		case OpEq:
			return got == want, nil
		case OpNeq:
			return got != want, nil
		}
		return false, fmt.Errorf("rules: operator %q not supported for string literal", p.Op)
	}
}

func (p Compare) collectRefs(dest map[string]struct{}) { dest[p.Ref] = struct{}{} }

func (p Compare) rewriteRefs(fn func(string) (string, error)) (Predicate, error) {
	ref, err := fn(p.Ref)
	if err != nil {
		return nil, err
	}
	return Compare{Ref: ref, Op: p.Op, Literal: p.Literal}, nil
}

// Match checks a referenced control's value against a regular expression.
type Match struct {
	Ref     string
	Pattern string

	re *regexp.Regexp
}

// NewMatch compiles the pattern eagerly so invalid expressions surface at
// build time.
func NewMatch(ref, pattern string) (Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Match{}, fmt.Errorf("rules: invalid match pattern %q: %w", pattern, err)
	}
	return Match{Ref: ref, Pattern: pattern, re: re}, nil
}

func (p Match) Eval(values map[string]any) (bool, error) {
	if p.re == nil {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return false, fmt.Errorf("rules: invalid match pattern %q: %w", p.Pattern, err)
		}
		p.re = re
	}
	return p.re.MatchString(coerceString(values[p.Ref])), nil
}

func (p Match) collectRefs(dest map[string]struct{}) { dest[p.Ref] = struct{}{} }

func (p Match) rewriteRefs(fn func(string) (string, error)) (Predicate, error) {
	ref, err := fn(p.Ref)
	if err != nil {
		return nil, err
	}
	return Match{Ref: ref, Pattern: p.Pattern, re: p.re}, nil
}

// Truthy holds when the referenced value is set and non-zero: non-empty
// strings and collections, true booleans, non-zero numbers.
type Truthy struct {
	Ref string
}

func (p Truthy) Eval(values map[string]any) (bool, error) {
	value, ok := values[p.Ref]
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

func (p Truthy) collectRefs(dest map[string]struct{}) { dest[p.Ref] = struct{}{} }

func (p Truthy) rewriteRefs(fn func(string) (string, error)) (Predicate, error) {
	ref, err := fn(p.Ref)
	if err != nil {
		return nil, err
	}
	return Truthy{Ref: ref}, nil
}

// References returns the sorted set of control names the predicate reads.
func References(p Predicate) []string {
	if p == nil {
		return nil
	}
	set := make(map[string]struct{})
	p.collectRefs(set)
	out := make([]string, 0, len(set))
	for ref := range set {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// RewriteRefs returns a copy of the predicate with every reference replaced
// through fn. The dependency resolver uses it to canonicalise bare control
// names into "step.control" paths.
func RewriteRefs(p Predicate, fn func(string) (string, error)) (Predicate, error) {
	if p == nil {
		return nil, nil
	}
	return p.rewriteRefs(fn)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		return v != 0, true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
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

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
