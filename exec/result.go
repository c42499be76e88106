package exec

import (
	"context"
	"time"

	"github.com/jonwraymond/tooldiscovery/index"
)

// Handler is the function signature for local tool handlers.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Result represents the outcome of a single execution.
type Result struct {
	// Value is the tool's return value. For bingen:assemble it is an
	// AssembleOutput, for bingen:locate a LocateOutput.
	Value any

	// Bytes is set by Assemble and bingen:assemble.
	Bytes []byte

	// ToolID is the canonical ID of the executed tool.
	ToolID string

	// Duration is how long execution took.
	Duration time.Duration

	// Error is non-nil if execution failed.
	Error error
}

// OK returns true if the result has no error.
func (r Result) OK() bool {
	return r.Error == nil
}

// AssembleInput is the argument shape of bingen:assemble.
type AssembleInput struct {
	Triple string `json:"triple" jsonschema:"LLVM target triple, e.g. aarch64-linux-eabi"`
	Source string `json:"source" jsonschema:"assembly text in the target's syntax"`
	Format string `json:"format,omitempty" jsonschema:"literal format: list, slice or array"`
}

// AssembleOutput is the result shape of bingen:assemble.
type AssembleOutput struct {
	// Bytes holds each byte as a number so JSON shows a list, not base64.
	Bytes   []int  `json:"bytes"`
	Hex     string `json:"hex"`
	Literal string `json:"literal"`

	raw []byte
}

// Raw returns the assembled bytes.
func (o AssembleOutput) Raw() []byte {
	return o.raw
}

// LocateOutput is the result shape of bingen:locate.
type LocateOutput struct {
	Compiler string `json:"compiler"`
	ObjCopy  string `json:"objcopy"`
	Source   string `json:"source"`
}

// ToolSummary is an alias to index.Summary for search results.
type ToolSummary = index.Summary
