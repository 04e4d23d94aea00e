package core

import "fmt"

// Finish is the sentinel routing target meaning no specialist should run.
const Finish = "FINISH"

// SupervisorName identifies the routing step in transcripts, events and the
// CurrentSpecialist field before any specialist has produced output.
const SupervisorName = "supervisor"

// Task kinds. Coarse, informational classification labels; they never drive
// control flow directly.
const (
	TaskKindDocument = "document"
	TaskKindVideo    = "video"
	TaskKindGeneral  = "general"
	TaskKindUnknown  = "unknown"
)

// ConversationState is the unit of truth flowing through one orchestration
// run. It is an immutable-update value: every mutator returns a new state and
// never touches the receiver, so a state handed to a specialist can be kept
// by the caller for comparison without defensive copying.
type ConversationState struct {
	// Messages is the append-only dialogue transcript. Insertion order is
	// semantically meaningful and never changes.
	Messages []Message `json:"messages"`

	// NextSpecialist is the routing target chosen by the classifier: a
	// registered specialist tag or Finish. Only the classifier step writes it.
	NextSpecialist string `json:"next_specialist,omitempty"`

	// CurrentSpecialist is the tag of the specialist that most recently
	// produced output, or SupervisorName right after classification.
	CurrentSpecialist string `json:"current_specialist,omitempty"`

	// TaskKind is the coarse classification label for the current turn.
	TaskKind string `json:"task_kind,omitempty"`

	// Context accumulates specialist findings across the conversation under
	// specialist-namespaced keys (see ContextKey). Merged, never replaced.
	Context map[string]any `json:"context,omitempty"`
}

// NewConversationState returns an empty state with TaskKind unknown.
func NewConversationState() ConversationState {
	return ConversationState{TaskKind: TaskKindUnknown}
}

// ContextKey builds a specialist-namespaced context key, e.g.
// ContextKey("document", "last_result") -> "document.last_result".
func ContextKey(tag, key string) string { return fmt.Sprintf("%s.%s", tag, key) }

// Clone returns a deep copy safe for independent mutation.
func (s ConversationState) Clone() ConversationState {
	c := s
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	if s.Context != nil {
		c.Context = make(map[string]any, len(s.Context))
		for k, v := range s.Context {
			c.Context[k] = v
		}
	}
	return c
}

// AppendMessage returns a new state with msg appended to the transcript.
func (s ConversationState) AppendMessage(msg Message) ConversationState {
	c := s
	c.Messages = make([]Message, len(s.Messages), len(s.Messages)+1)
	copy(c.Messages, s.Messages)
	c.Messages = append(c.Messages, msg)
	return c
}

// WithRouting returns a new state carrying the classifier's decision and the
// inferred task kind. Only the classifier step may call this.
func (s ConversationState) WithRouting(nextSpecialist, taskKind string) ConversationState {
	c := s
	c.NextSpecialist = nextSpecialist
	c.CurrentSpecialist = SupervisorName
	if taskKind != "" {
		c.TaskKind = taskKind
	}
	return c
}

// WithCurrentSpecialist returns a new state recording which specialist just
// produced output.
func (s ConversationState) WithCurrentSpecialist(tag string) ConversationState {
	c := s
	c.CurrentSpecialist = tag
	return c
}

// WithNextSpecialist returns a new state with the routing target replaced,
// leaving the other routing fields alone. Used to mark a run terminal.
func (s ConversationState) WithNextSpecialist(tag string) ConversationState {
	c := s
	c.NextSpecialist = tag
	return c
}

// MergeContext returns a new state with the delta merged into Context.
// Existing keys outside the delta are preserved; the map is never replaced
// wholesale.
func (s ConversationState) MergeContext(delta map[string]any) ConversationState {
	if len(delta) == 0 {
		return s
	}
	c := s
	c.Context = make(map[string]any, len(s.Context)+len(delta))
	for k, v := range s.Context {
		c.Context[k] = v
	}
	for k, v := range delta {
		c.Context[k] = v
	}
	return c
}

// LastMessage returns the most recent message and true, or false on an empty
// transcript.
func (s ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastUserText returns the text of the most recent user message, or "".
func (s ConversationState) LastUserText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Text()
		}
	}
	return ""
}

// LastAssistantText returns the text of the most recent assistant message,
// or "".
func (s ConversationState) LastAssistantText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Text()
		}
	}
	return ""
}
