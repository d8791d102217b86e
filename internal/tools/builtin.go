package tools

import "fmt"

// RegisterBuiltins adds the small set of example tools agent definitions
// can reference by name out of the box.
func RegisterBuiltins(r *Registry) {
	r.Register("calculator", calculatorTool, []string{"a", "b"})
	r.Register("echo", echoTool, []string{"input_val"})
}

// calculatorTool adds two numbers, mirroring the arithmetic tool used to
// exercise TOOL_USE steps end-to-end.
func calculatorTool(a, b int) int {
	return a + b
}

// echoTool returns its input prefixed, useful for exercising context
// propagation without an LLM round trip.
func echoTool(inputVal string) string {
	return fmt.Sprintf("Processed: %s", inputVal)
}
