// Package tool defines the contract for external capabilities a specialist
// may call during a run (OCR, frame extraction, search, ...). Each call is
// atomic from the engine's perspective: it either returns a result or an
// error, and never applies partial state.
package tool

import "context"

// Tool is an externally callable capability exposed to a specialist's model.
type Tool interface {
	// Name is the unique tool identifier (snake_case recommended).
	Name() string
	// Description is shown to models when deciding whether to call.
	Description() string
	// Parameters is a minimal JSON-Schema-like map describing the accepted
	// arguments.
	Parameters() map[string]any
	// Call executes the tool. Errors are reported back to the model as
	// failed tool results; they never cross the orchestration boundary.
	Call(ctx context.Context, args map[string]any) (any, error)
}
