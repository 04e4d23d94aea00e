package core

import "errors"

// Stream event types emitted by the streaming facade, in emission order:
// one routing event, zero or more message events, then exactly one terminal
// done or error event.
const (
	EventRouting = "routing"
	EventMessage = "message"
	EventDone    = "done"
	EventError   = "error"
)

// StreamEvent is one element of the lazy, finite event sequence produced by
// a streaming invocation. It serializes to a single line-delimited JSON
// object; fields are populated per event type.
type StreamEvent struct {
	Type string `json:"type"`

	// Routing fields (EventRouting)
	Specialist string `json:"specialist,omitempty"`
	TaskKind   string `json:"task_kind,omitempty"`

	// Message fields (EventMessage)
	Role    string `json:"role,omitempty"`
	Author  string `json:"author,omitempty"`
	Content string `json:"content,omitempty"`

	// Terminal fields (EventDone / EventError)
	ConversationID string `json:"thread_id,omitempty"`
	Error          string `json:"error,omitempty"`
	Phase          Phase  `json:"phase,omitempty"`
}

// NewRoutingEvent records the classifier's dispatch decision.
func NewRoutingEvent(specialist, taskKind string) StreamEvent {
	return StreamEvent{Type: EventRouting, Specialist: specialist, TaskKind: taskKind}
}

// NewMessageEvent carries one produced transcript message.
func NewMessageEvent(msg Message) StreamEvent {
	return StreamEvent{Type: EventMessage, Role: msg.Role, Author: msg.Author, Content: msg.Text()}
}

// NewDoneEvent terminates a successful stream.
func NewDoneEvent(conversationID string) StreamEvent {
	return StreamEvent{Type: EventDone, ConversationID: conversationID}
}

// NewErrorEvent terminates a failed stream.
func NewErrorEvent(conversationID string, err error) StreamEvent {
	ev := StreamEvent{Type: EventError, ConversationID: conversationID}
	if err != nil {
		ev.Error = err.Error()
		var e *Error
		if errors.As(err, &e) {
			ev.Phase = e.Phase
		}
	}
	return ev
}
