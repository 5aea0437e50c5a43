package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse compiles an expression string into a Predicate. The grammar:
//
//	expr    := or
//	or      := and { "||" and }
//	and     := unary { "&&" unary }
//	unary   := "!" unary | primary
//	primary := "(" expr ")" | ident [ op literal ]
//	op      := "==" | "!=" | "<" | "<=" | ">" | ">=" | "matches"
//	literal := string | number | true | false | null
//
// Identifiers are control names, optionally step-qualified ("step.control").
// A bare identifier is a truthiness check. An empty expression parses to nil,
// meaning always visible.
func Parse(rule string) (Predicate, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("rules: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

// MustParse panics on parse failure. Useful for static definitions and tests.
func MustParse(rule string) Predicate {
	p, err := Parse(rule)
	if err != nil {
		panic(err)
	}
	return p
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenMatches
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	for i < len(input) {
		ch := peek()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '(':
			i++
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			continue
		case ')':
			i++
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			continue
		case '!':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			continue
		case '=':
			i++
			if peek() != '=' {
				return nil, errors.New(`rules: unexpected '='; use '=='`)
			}
			i++
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			continue
		case '<':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenLte, raw: "<="})
				continue
			}
			tokens = append(tokens, token{kind: tokenLt, raw: "<"})
			continue
		case '>':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenGte, raw: ">="})
				continue
			}
			tokens = append(tokens, token{kind: tokenGt, raw: ">"})
			continue
		case '&':
			i++
			if peek() != '&' {
				return nil, errors.New(`rules: unexpected '&'; use '&&'`)
			}
			i++
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			continue
		case '|':
			i++
			if peek() != '|' {
				return nil, errors.New(`rules: unexpected '|'; use '||'`)
			}
			i++
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			continue
		case '"', '\'':
			quote := input[i]
			i++
			start := i
			escaped := false
			terminated := false
			for i < len(input) {
				c := input[i]
				i++
				if escaped {
					escaped = false
					continue
				}
				if c == '\\' {
					escaped = true
					continue
				}
				if c == quote {
					raw := string(quote) + input[start:i-1] + string(quote)
					if quote == '\'' {
						raw = `"` + strings.ReplaceAll(input[start:i-1], `\'`, `'`) + `"`
					}
					value, err := strconv.Unquote(raw)
					if err != nil {
						return nil, fmt.Errorf("rules: invalid string literal: %w", err)
					}
					tokens = append(tokens, token{kind: tokenString, raw: value})
					terminated = true
					break
				}
			}
			if !terminated {
				return nil, errors.New("rules: unterminated string literal")
			}
			continue
		default:
			start := i
			for i < len(input) {
				c := input[i]
				if strings.IndexByte(" \t\n\r()!=&|<>", c) >= 0 {
					break
				}
				i++
			}
			raw := input[start:i]
			switch strings.ToLower(raw) {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
			case "null", "nil":
				tokens = append(tokens, token{kind: tokenNull, raw: "null"})
			case "matches":
				tokens = append(tokens, token{kind: tokenMatches, raw: "matches"})
			default:
				if looksLikeNumber(raw) {
					tokens = append(tokens, token{kind: tokenNumber, raw: raw})
				} else {
					tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
				}
			}
		}
	}

	return tokens, nil
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+'
}

type tokenStream struct {
	tokens []token
	pos    int
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (Literal, error) {
	if s.pos >= len(s.tokens) {
		return Literal{}, errors.New("rules: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString:
		return Literal{Kind: LitString, Raw: tok.raw}, nil
	case tokenNumber:
		return Literal{Kind: LitNumber, Raw: tok.raw}, nil
	case tokenBool:
		return Literal{Kind: LitBool, Raw: tok.raw}, nil
	case tokenNull:
		return Literal{Kind: LitNull, Raw: "null"}, nil
	case tokenIdentifier:
		// Bare identifiers on the right are treated as strings to keep the
		// grammar forgiving: status == draft.
		return Literal{Kind: LitString, Raw: tok.raw}, nil
	default:
		return Literal{}, fmt.Errorf("rules: expected literal, got %q", tok.raw)
	}
}

func parseOr(stream *tokenStream) (Predicate, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (Predicate, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (Predicate, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (Predicate, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("rules: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("rules: empty expression")
		}
		return nil, fmt.Errorf("rules: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}

	for _, candidate := range []struct {
		kind tokenKind
		op   Op
	}{
		{tokenEq, OpEq}, {tokenNeq, OpNeq},
		{tokenLte, OpLte}, {tokenLt, OpLt},
		{tokenGte, OpGte}, {tokenGt, OpGt},
	} {
		if stream.match(candidate.kind) {
			lit, err := stream.consumeLiteral()
			if err != nil {
				return nil, err
			}
			return Compare{Ref: ident.raw, Op: candidate.op, Literal: lit}, nil
		}
	}

	if stream.match(tokenMatches) {
		lit, err := stream.consumeLiteral()
		if err != nil {
			return nil, err
		}
		if lit.Kind != LitString {
			return nil, errors.New("rules: matches requires a string pattern")
		}
		return NewMatch(ident.raw, lit.Raw)
	}

	return Truthy{Ref: ident.raw}, nil
}
