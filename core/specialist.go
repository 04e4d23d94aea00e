package core

import "context"

// TaskExecutor is the capability contract every specialist implements.
//
// A Run invocation must:
//   - read state.Messages (and optionally state.Context) to build its input
//   - append exactly one response message to the transcript
//   - set CurrentSpecialist to its own tag
//   - merge any findings into Context under its own namespace
//   - never set NextSpecialist; routing authority belongs to the Classifier
//
// On internal failure the executor still returns a valid state whose
// appended message communicates the failure to the user. Only
// configuration-class errors (see ConfigError) may propagate past Run.
type TaskExecutor interface {
	// Tag is the stable dispatch key for this specialist.
	Tag() string
	// Kind is the coarse task classification this specialist serves.
	Kind() string
	// Capabilities describes what the specialist handles; consumed by the
	// default classifier for keyword matching and surfaced via status.
	Capabilities() []string
	// Run processes one turn and returns the advanced state.
	Run(ctx context.Context, state ConversationState) (ConversationState, error)
}

// Classifier inspects the latest conversation state and decides which
// specialist handles the turn. state.Messages must be non-empty; an empty
// transcript is a caller error and fails fast with KindInvalidInput.
//
// Implementations may call external inference providers; provider failures
// must surface as errors (mapped to KindClassifierUnavailable by the graph),
// never as a silent Finish.
type Classifier interface {
	Classify(ctx context.Context, state ConversationState) (RoutingDecision, error)
}

// Store persists conversation records keyed by conversation id.
//
// Load returns a fresh empty state for unknown ids; an error means the store
// itself is unavailable, which is fatal to the enclosing orchestration call.
// Reset deletes the record; a subsequent Load returns fresh state.
type Store interface {
	Load(ctx context.Context, conversationID string) (ConversationState, error)
	Save(ctx context.Context, conversationID string, state ConversationState) error
	Reset(ctx context.Context, conversationID string) error
}
