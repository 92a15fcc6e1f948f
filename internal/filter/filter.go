// Package filter evaluates simple field/operator/value expressions against
// property records without eval. Expressions look like:
//
//	lot_size_sqft > 7500 and city == "Fort Lauderdale"
//
// Clauses are joined by "and". String comparisons are case-insensitive.
// The parser is deliberately forgiving: an unparseable expression filters
// nothing, and a record missing a referenced field is excluded.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator in a filter clause.
type Op string

const (
	OpEq       Op = "=="
	OpNe       Op = "!="
	OpGt       Op = ">"
	OpLt       Op = "<"
	OpGe       Op = ">="
	OpLe       Op = "<="
	OpContains Op = "contains"
)

// Value is a parsed literal: numeric when the raw text parses as a float,
// string otherwise.
type Value struct {
	Str       string
	Num       float64
	IsNumeric bool
}

// Clause is one field/operator/value comparison.
type Clause struct {
	Field string
	Op    Op
	Value Value
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenOperator
	tokenString // was quoted in the input
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits an expression into words, operators, and quoted strings.
// Quoting protects embedded "and" and spaces: `city == "Dania and Beach"`
// is one clause.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			i++
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			tokens = append(tokens, token{kind: tokenString, text: string(runes[i+1 : j])})
			i = j + 1
		case r == '=' || r == '!' || r == '<' || r == '>':
			j := i + 1
			if j < len(runes) && runes[j] == '=' {
				j++
			}
			op := string(runes[i:j])
			switch Op(op) {
			case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe:
				tokens = append(tokens, token{kind: tokenOperator, text: op})
			default:
				return nil, fmt.Errorf("invalid operator %q at offset %d", op, i)
			}
			i = j
		default:
			j := i
			for j < len(runes) && !strings.ContainsRune(" \t\n'\"=!<>", runes[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenWord, text: string(runes[i:j])})
			i = j
		}
	}
	return tokens, nil
}

// Parse builds the clause list for an expression. The grammar is flat:
//
//	expr   := clause ("and" clause)*
//	clause := FIELD op value
//	op     := == | != | > | < | >= | <= | contains
func Parse(expr string) ([]Clause, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	var clauses []Clause
	i := 0
	for i < len(tokens) {
		if tokens[i].kind != tokenWord {
			return nil, fmt.Errorf("expected field name, got %q", tokens[i].text)
		}
		field := tokens[i].text
		i++

		if i >= len(tokens) {
			return nil, fmt.Errorf("clause %q missing operator", field)
		}
		var op Op
		switch {
		case tokens[i].kind == tokenOperator:
			op = Op(tokens[i].text)
		case tokens[i].kind == tokenWord && strings.EqualFold(tokens[i].text, string(OpContains)):
			op = OpContains
		default:
			return nil, fmt.Errorf("invalid operator %q in clause %q", tokens[i].text, field)
		}
		i++

		// The value runs until the next standalone "and". Unquoted multi-word
		// values are joined by single spaces.
		var parts []string
		for i < len(tokens) {
			if tokens[i].kind == tokenWord && strings.EqualFold(tokens[i].text, "and") {
				break
			}
			if tokens[i].kind == tokenOperator {
				return nil, fmt.Errorf("unexpected operator %q in value", tokens[i].text)
			}
			parts = append(parts, tokens[i].text)
			i++
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("clause %q missing value", field)
		}
		clauses = append(clauses, Clause{Field: field, Op: op, Value: parseValue(strings.Join(parts, " "))})

		if i < len(tokens) {
			i++ // consume "and"
			if i >= len(tokens) {
				return nil, fmt.Errorf("dangling \"and\" in expression")
			}
		}
	}
	return clauses, nil
}

func parseValue(raw string) Value {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return Value{Num: n, IsNumeric: true, Str: raw}
	}
	return Value{Str: raw}
}
