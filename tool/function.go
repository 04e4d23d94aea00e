package tool

import "context"

// FuncTool is a generic adapter that exposes a plain Go function as a Tool.
// It has no internal mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type FuncTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunc constructs a FuncTool from explicit schema and function.
//
// Example:
//
//	ocr := tool.NewFunc(
//	  "process_document_ocr",
//	  "Extract text from a document image or PDF",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "path": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"path"},
//	  },
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return runOCR(ctx, args["path"].(string))
//	  },
//	)
func NewFunc(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FuncTool {
	return &FuncTool{name: name, description: description, parameters: parameters, fn: fn}
}

// Name implements Tool.
func (t *FuncTool) Name() string { return t.name }

// Description implements Tool.
func (t *FuncTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FuncTool) Parameters() map[string]any { return t.parameters }

// Call implements Tool.
func (t *FuncTool) Call(ctx context.Context, args map[string]any) (any, error) {
	return t.fn(ctx, args)
}
