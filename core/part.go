package core

import (
	"encoding/json"
	"fmt"
)

// Part represents a polymorphic segment of message content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// DataPart is a structured data segment (e.g., JSON object map). Specialists
// use it to attach machine-readable findings alongside their prose answer.
type DataPart struct {
	Data map[string]any // Structured key/value payload
}

// isPart implements the Part interface for DataPart.
func (DataPart) isPart() {}

// FilePart references a file the user attached to the conversation, either
// inlined as base64 bytes or by external URI. The engine never interprets the
// contents; they are opaque input for specialist tool calls.
type FilePart struct {
	Name     string `json:"name,omitempty"`      // Original filename hint
	MimeType string `json:"mime_type,omitempty"` // Optional MIME type
	Bytes    string `json:"bytes,omitempty"`     // Base64 encoded contents (if inlined)
	URI      string `json:"uri,omitempty"`       // External retrieval URI (if not inlined)
}

// isPart implements the Part interface for FilePart.
func (FilePart) isPart() {}

// partEnvelope is the wire shape for the Part union. Stores must round-trip
// states without loss, so every part serializes with an explicit type tag.
type partEnvelope struct {
	Type string         `json:"type"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
	File *FilePart      `json:"file,omitempty"`
}

// MarshalParts encodes an ordered part slice into its tagged wire form.
func MarshalParts(parts []Part) ([]byte, error) {
	envelopes := make([]partEnvelope, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case TextPart:
			envelopes = append(envelopes, partEnvelope{Type: "text", Text: v.Text})
		case DataPart:
			envelopes = append(envelopes, partEnvelope{Type: "data", Data: v.Data})
		case FilePart:
			f := v
			envelopes = append(envelopes, partEnvelope{Type: "file", File: &f})
		default:
			return nil, fmt.Errorf("unsupported part type %T", p)
		}
	}
	return json.Marshal(envelopes)
}

// UnmarshalParts decodes the tagged wire form back into concrete parts,
// preserving order. Unknown type tags are an error rather than silently
// dropped so a store cannot lose payloads.
func UnmarshalParts(data []byte) ([]Part, error) {
	var envelopes []partEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, err
	}
	parts := make([]Part, 0, len(envelopes))
	for _, env := range envelopes {
		switch env.Type {
		case "text":
			parts = append(parts, TextPart{Text: env.Text})
		case "data":
			parts = append(parts, DataPart{Data: env.Data})
		case "file":
			if env.File == nil {
				return nil, fmt.Errorf("file part without file payload")
			}
			parts = append(parts, *env.File)
		default:
			return nil, fmt.Errorf("unknown part type %q", env.Type)
		}
	}
	return parts, nil
}
