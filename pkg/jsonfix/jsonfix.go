// Package jsonfix converts possibly-malformed JSON text into structured
// values. Language models routinely emit argument text with trailing commas,
// single quotes, unquoted keys, or truncated structures; this package treats
// "malformed but repairable" as the common case and escalates through parsing
// strategies until one succeeds. Only input that defeats every strategy
// produces a hard failure.
package jsonfix

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
)

// UnrepairableError reports that every repair strategy failed for an input.
// It carries the original text and the last underlying parser error.
type UnrepairableError struct {
	Input string
	Cause error
}

func (e *UnrepairableError) Error() string {
	return fmt.Sprintf("jsonfix: cannot parse or repair input %q: %v", e.Input, e.Cause)
}

func (e *UnrepairableError) Unwrap() error { return e.Cause }

type strategy struct {
	name  string
	parse func(string) (any, error)
}

// strategies are tried in strict escalating order. Each is a full,
// independent attempt on the original text, never on a partially transformed
// intermediate.
var strategies = []strategy{
	{name: "strict", parse: parseStrict},
	{name: "json5", parse: parseJSON5},
	{name: "repair", parse: parseRepaired},
}

// Repair parses text into a structured value, accepting the first strategy
// that succeeds: strict JSON, then the relaxed JSON5 grammar, then heuristic
// reconstruction followed by a strict reparse. When all three fail it returns
// an *UnrepairableError wrapping the last parser error.
func Repair(text string) (any, error) {
	var lastErr error
	for _, s := range strategies {
		value, err := s.parse(text)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	return nil, &UnrepairableError{Input: text, Cause: lastErr}
}

func parseStrict(text string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}
	return value, nil
}

func parseJSON5(text string) (any, error) {
	var value any
	if err := json5.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}
	return value, nil
}

func parseRepaired(text string) (any, error) {
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, err
	}
	return parseStrict(repaired)
}
