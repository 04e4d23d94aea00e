package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation roles. The transcript only ever contains these three; tool
// traffic stays inside a specialist's run and never reaches the transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry of the dialogue transcript. After being appended to a
// ConversationState it must be treated as immutable. Author identifies the
// producing specialist (or SupervisorName / "user") for observability.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Author    string    `json:"author,omitempty"`
	Parts     []Part    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// NewID generates a new unique identifier for messages and conversations.
func NewID() string { return uuid.NewString() }

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleUser,
		Author:    RoleUser,
		Parts:     []Part{TextPart{Text: text}},
		Timestamp: time.Now().UTC(),
	}
}

// NewAssistantMessage creates an assistant message authored by the given
// specialist tag.
func NewAssistantMessage(author, text string) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleAssistant,
		Author:    author,
		Parts:     []Part{TextPart{Text: text}},
		Timestamp: time.Now().UTC(),
	}
}

// NewAssistantContentMessage creates an assistant message with arbitrary
// parts, for specialists that attach structured payloads to their reply.
func NewAssistantContentMessage(author string, parts []Part) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleAssistant,
		Author:    author,
		Parts:     parts,
		Timestamp: time.Now().UTC(),
	}
}

// Text concatenates all text parts of the message in order.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// messageWire mirrors Message with serializable parts.
type messageWire struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Author    string          `json:"author,omitempty"`
	Parts     json.RawMessage `json:"parts"`
	Timestamp time.Time       `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler using the tagged part envelope.
func (m Message) MarshalJSON() ([]byte, error) {
	parts, err := MarshalParts(m.Parts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(messageWire{
		ID:        m.ID,
		Role:      m.Role,
		Author:    m.Author,
		Parts:     parts,
		Timestamp: m.Timestamp,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parts, err := UnmarshalParts(w.Parts)
	if err != nil {
		return err
	}
	m.ID = w.ID
	m.Role = w.Role
	m.Author = w.Author
	m.Parts = parts
	m.Timestamp = w.Timestamp
	return nil
}
