package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexrt/agent-runtime/internal/errs"
	"github.com/cortexrt/agent-runtime/internal/runctx"
)

func simpleTool(inputVal string) string {
	return "Processed: " + inputVal
}

func calcTool(a, b int) int {
	return a + b
}

func TestRegistry_ExecuteDirectBinding(t *testing.T) {
	r := NewRegistry()
	r.Register("simple_tool", simpleTool, []string{"input_val"})
	r.Register("calculator", calcTool, []string{"a", "b"})

	out, err := r.Execute("simple_tool", map[string]runctx.Value{
		"input_val": runctx.FromAny("test"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Processed: test", out)

	out, err = r.Execute("calculator", map[string]runctx.Value{
		"a": runctx.FromAny(5),
		"b": runctx.FromAny(3),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, out)
}

func TestRegistry_ExecuteCoercesNumericJSONTypes(t *testing.T) {
	r := NewRegistry()
	r.Register("calculator", calcTool, []string{"a", "b"})

	// Values arriving from a JSON-decoded run input are float64, even
	// when the tool itself declares int parameters.
	out, err := r.Execute("calculator", map[string]runctx.Value{
		"a": runctx.FromAny(float64(10)),
		"b": runctx.FromAny(float64(20)),
	})
	require.NoError(t, err)
	assert.Equal(t, 30, out)
}

func TestRegistry_ExecuteIgnoresExtraInputKeys(t *testing.T) {
	r := NewRegistry()
	r.Register("calculator", calcTool, []string{"a", "b"})

	out, err := r.Execute("calculator", map[string]runctx.Value{
		"a":     runctx.FromAny(1),
		"b":     runctx.FromAny(2),
		"input": runctx.FromAny(map[string]any{"a": 1, "b": 2}),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestRegistry_ExecuteMissingRequiredParameter(t *testing.T) {
	r := NewRegistry()
	r.Register("calculator", calcTool, []string{"a", "b"})

	_, err := r.Execute("calculator", map[string]runctx.Value{
		"a": runctx.FromAny(1),
	})
	require.Error(t, err)
	var invocErr *errs.ToolInvocationError
	assert.ErrorAs(t, err, &invocErr)
	assert.Equal(t, "calculator", invocErr.Name)
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute("does_not_exist", nil)
	require.Error(t, err)
	var notFound *errs.ToolNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register("simple_tool", simpleTool, []string{"input_val"})

	fn, ok := r.Get("simple_tool")
	assert.True(t, ok)
	assert.NotNil(t, fn)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	RegisterBuiltins(r)

	out, err := r.Execute("calculator", map[string]runctx.Value{
		"a": runctx.FromAny(10),
		"b": runctx.FromAny(20),
	})
	require.NoError(t, err)
	assert.Equal(t, 30, out)

	out, err = r.Execute("echo", map[string]runctx.Value{
		"input_val": runctx.FromAny("hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Processed: hi", out)
}
