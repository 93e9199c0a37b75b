package model

import "strings"

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-issued request to invoke a tool. Arguments is the
// parsed JSON arguments object.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Part is one typed piece of a message's content. The set of implementations
// is closed: TextPart, ToolCallPart and ToolResultPart. Conversion code
// switches exhaustively over these three and rejects anything else.
type Part interface {
	isPart()
}

// TextPart carries plain text.
type TextPart struct {
	Text string
}

// ToolCallPart carries an assistant-issued tool call.
type ToolCallPart struct {
	Call ToolCall
}

// ToolResultPart carries the result of a previously issued tool call.
type ToolResultPart struct {
	CallID string
	Text   string
}

func (TextPart) isPart()       {}
func (ToolCallPart) isPart()   {}
func (ToolResultPart) isPart() {}

// Message represents one turn in a conversation. Parts are ordered and never
// mutated after creation; the engine treats messages as read-only for the
// duration of a request.
type Message struct {
	Role  Role
	Parts []Part
}

// NewTextMessage builds a message holding a single text part.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates all text parts in order.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// ToolCalls returns the tool calls carried by this message, in part order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc.Call)
		}
	}
	return calls
}

// ToolResults returns the tool results carried by this message, in part order.
func (m Message) ToolResults() []ToolResultPart {
	var results []ToolResultPart
	for _, p := range m.Parts {
		if tr, ok := p.(ToolResultPart); ok {
			results = append(results, tr)
		}
	}
	return results
}

// HasToolCalls reports whether the message carries at least one tool call.
func (m Message) HasToolCalls() bool {
	for _, p := range m.Parts {
		if _, ok := p.(ToolCallPart); ok {
			return true
		}
	}
	return false
}

// HasToolResults reports whether the message carries at least one tool result.
func (m Message) HasToolResults() bool {
	for _, p := range m.Parts {
		if _, ok := p.(ToolResultPart); ok {
			return true
		}
	}
	return false
}
