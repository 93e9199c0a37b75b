package model

// Turn classifies the trailing state of a conversation.
type Turn int

const (
	// NewTurn means the next request starts a fresh user exchange. Cached
	// thinking tokens must be flushed and never attached to the request.
	NewTurn Turn = iota

	// Continuation means the trailing message supplies tool results for a
	// pending tool call, so the request continues the current exchange.
	Continuation
)

// ClassifyTurn inspects the trailing message of a conversation.
//
// The conversation is a continuation only when the last message has role
// "user" and carries at least one tool result. Everything else (empty
// history, a trailing assistant message, a plain user message) starts a
// new turn.
func ClassifyTurn(messages []Message) Turn {
	if len(messages) == 0 {
		return NewTurn
	}
	last := messages[len(messages)-1]
	if last.Role == RoleUser && last.HasToolResults() {
		return Continuation
	}
	return NewTurn
}
