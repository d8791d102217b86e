// Package runctx implements the per-run context: a mapping from
// string keys (the reserved "input" key, each top-level key of a
// mapping input, and each prior step's name) to tagged values. It is
// in-memory only and rebuilt fresh for every run attempt.
package runctx

import (
	"encoding/json"
	"fmt"
)

// Kind tags the shape of data a Value carries.
type Kind int

const (
	// KindRaw carries the original, untyped input payload.
	KindRaw Kind = iota
	// KindString carries a prior step's textual output.
	KindString
	// KindNumber carries a numeric value.
	KindNumber
	// KindMap carries a nested structured value.
	KindMap
)

// Value is the tagged union stored in a Context. Exactly one of its
// accessors is meaningful depending on Kind.
type Value struct {
	Kind Kind
	Raw  any
}

// FromOutput wraps a step's textual output.
func FromOutput(text string) Value {
	return Value{Kind: KindString, Raw: text}
}

// FromAny wraps an arbitrary input value, classifying it by Go type.
func FromAny(v any) Value {
	switch t := v.(type) {
	case string:
		return Value{Kind: KindString, Raw: t}
	case map[string]any:
		return Value{Kind: KindMap, Raw: t}
	case float64, int, int64:
		return Value{Kind: KindNumber, Raw: t}
	default:
		return Value{Kind: KindRaw, Raw: v}
	}
}

// String renders the value as text, suitable for prompt interpolation
// or tool-argument binding fallbacks.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		s, _ := v.Raw.(string)
		return s
	case KindNumber:
		return fmt.Sprintf("%v", v.Raw)
	default:
		b, err := json.Marshal(v.Raw)
		if err != nil {
			return fmt.Sprintf("%v", v.Raw)
		}
		return string(b)
	}
}

// Context is the per-run accumulator described in the data model: the
// reserved "input" key, the top-level keys of a mapping input, and
// each completed step's name mapped to its output.
type Context map[string]Value

// Build constructs the initial context for a run from its input
// payload. Input keys never shadow the reserved "input" key.
func Build(input any) Context {
	ctx := Context{"input": FromAny(input)}
	if m, ok := input.(map[string]any); ok {
		for k, v := range m {
			if k == "input" {
				continue
			}
			ctx[k] = FromAny(v)
		}
	}
	return ctx
}

// SetStepOutput records a completed step's output under its name.
func (c Context) SetStepOutput(stepName, outputText string) {
	c[stepName] = FromOutput(outputText)
}

// ToMap flattens the context into a plain map, used for tool-argument
// binding which only needs the underlying values.
func (c Context) ToMap() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = v.Raw
	}
	return out
}
