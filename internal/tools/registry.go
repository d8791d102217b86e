// Package tools implements the callable registry exercised by TOOL_USE
// steps: register a Go function under a name alongside its declared
// parameter order, then invoke it by name with a context-derived input
// map.
package tools

import (
	"fmt"
	"reflect"

	"github.com/cortexrt/agent-runtime/internal/errs"
	"github.com/cortexrt/agent-runtime/internal/runctx"
)

// entry pairs a callable with the parameter names Execute should bind
// input values to, in declared order. Go has no runtime reflection over
// parameter *names*, so registration carries them explicitly.
type entry struct {
	fn     reflect.Value
	params []string
}

// Registry maps tool names to callables. The zero value is not usable;
// construct with NewRegistry.
type Registry struct {
	tools map[string]entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

// Register adds fn under name. params must list fn's parameters in
// declared order; Execute binds input values to them positionally.
// Register panics on a non-func fn or a params/arity mismatch, since
// both are registration-time programmer errors, not run-time failures.
func (r *Registry) Register(name string, fn any, params []string) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("tools: Register(%q): fn is not a function", name))
	}
	if v.Type().NumIn() != len(params) {
		panic(fmt.Sprintf("tools: Register(%q): fn takes %d args, %d param names given", name, v.Type().NumIn(), len(params)))
	}
	r.tools[name] = entry{fn: v, params: params}
}

// Get returns the callable registered under name, if any.
func (r *Registry) Get(name string) (any, bool) {
	e, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return e.fn.Interface(), true
}

// Execute invokes the tool registered under name, filtering input to the
// tool's declared parameter names and binding them positionally. It
// returns ToolNotFound when name isn't registered and ToolInvocationError
// when argument binding or the call itself fails.
func (r *Registry) Execute(name string, input map[string]runctx.Value) (any, error) {
	e, ok := r.tools[name]
	if !ok {
		return nil, &errs.ToolNotFound{Name: name}
	}

	fnType := e.fn.Type()
	args := make([]reflect.Value, len(e.params))
	for i, pname := range e.params {
		val, present := input[pname]
		paramType := fnType.In(i)
		if !present {
			return nil, &errs.ToolInvocationError{Name: name, Cause: fmt.Errorf("missing required parameter %q", pname)}
		}
		bound, err := bindValue(val, paramType)
		if err != nil {
			return nil, &errs.ToolInvocationError{Name: name, Cause: fmt.Errorf("binding parameter %q: %w", pname, err)}
		}
		args[i] = bound
	}

	results, callErr := callSafely(e.fn, args)
	if callErr != nil {
		return nil, &errs.ToolInvocationError{Name: name, Cause: callErr}
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0].Interface(), nil
	default:
		out := make([]any, len(results))
		for i, rv := range results {
			out[i] = rv.Interface()
		}
		return out, nil
	}
}

// bindValue coerces a runctx.Value to the target parameter type.
func bindValue(v runctx.Value, target reflect.Type) (reflect.Value, error) {
	raw := v.Raw
	if raw == nil {
		raw = v.String()
	}
	rv := reflect.ValueOf(raw)

	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(target) {
		return rv.Convert(target), nil
	}

	// Numbers frequently round-trip through JSON/YAML as float64; widen
	// or narrow to whatever the tool actually declared.
	if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Float64 && target.Kind() >= reflect.Int && target.Kind() <= reflect.Float64 {
		return rv.Convert(target), nil
	}

	return reflect.Value{}, fmt.Errorf("cannot bind value of type %s to parameter of type %s", rv.Type(), target)
}

// callSafely invokes fn, converting a panic (e.g. a runtime type
// mismatch the signature couldn't catch) into an error so a single bad
// tool call can't take down the worker goroutine.
func callSafely(fn reflect.Value, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during tool call: %v", r)
		}
	}()
	results = fn.Call(args)
	return results, nil
}
