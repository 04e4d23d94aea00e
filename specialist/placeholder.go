package specialist

import (
	"context"
	"fmt"

	"github.com/hupe1980/taskmesh/core"
)

// Placeholder is a first-class executor for capabilities that are announced
// but not yet built. It always succeeds with a fixed notice quoting the
// request, so the dispatch logic never needs to know which specialists are
// real.
type Placeholder struct {
	Base
}

var _ core.TaskExecutor = (*Placeholder)(nil)

// NewPlaceholder constructs a placeholder executor.
func NewPlaceholder(tag, kind string, capabilities []string) *Placeholder {
	return &Placeholder{Base: NewBase(tag, kind, capabilities)}
}

// Run implements core.TaskExecutor.
func (p *Placeholder) Run(_ context.Context, state core.ConversationState) (core.ConversationState, error) {
	text := fmt.Sprintf(
		"The %s capability is not yet available. Your request (%q) has been noted and this specialist will handle it in a future release.",
		p.Kind(), state.LastUserText(),
	)
	state = state.AppendMessage(core.NewAssistantMessage(p.Tag(), text))
	return state.MergeContext(map[string]any{
		core.ContextKey(p.Tag(), "last_result"): "placeholder_response",
	}), nil
}
