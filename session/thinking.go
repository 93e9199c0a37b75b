// Package session holds per-conversation state that outlives a single
// request: the thinking-token store and on-disk transcripts.
package session

import (
	"fmt"
	"time"

	"llamedit/model"
)

// ThinkingStore associates reasoning content with the tool call that
// produced it, so it can be attached to exactly one follow-up request.
//
// The store is written and read by cooperative, single-threaded turn
// processing; read-then-write sequences for one key must not be interrupted
// by a suspension point, so no lock is taken.
type ThinkingStore struct {
	entries map[string]string
}

// NewThinkingStore creates an empty store.
func NewThinkingStore() *ThinkingStore {
	return &ThinkingStore{entries: map[string]string{}}
}

// KeyForCall returns the store key for a tool call id.
func KeyForCall(callID string) string {
	return "toolCall_" + callID
}

// FallbackKey returns a timestamp-derived key for thinking content left over
// with no associated tool call, so it is not silently lost.
func FallbackKey() string {
	return fmt.Sprintf("thinking_%d", time.Now().UnixMilli())
}

// Set stores reasoning content under a key, replacing any previous entry.
func (s *ThinkingStore) Set(key, value string) {
	s.entries[key] = value
}

// Clear drops every entry. Called whenever the next inbound turn starts a
// new conversation, bounding memory and preventing cross-conversation leaks.
func (s *ThinkingStore) Clear() {
	s.entries = map[string]string{}
}

// Len reports the number of stored entries.
func (s *ThinkingStore) Len() int {
	return len(s.entries)
}

// GetForMessage returns the stored value for the first tool-call part of a
// message, in part order. A message with no tool-call parts has no value.
func (s *ThinkingStore) GetForMessage(msg model.Message) (string, bool) {
	for _, p := range msg.Parts {
		tc, ok := p.(model.ToolCallPart)
		if !ok {
			continue
		}
		value, ok := s.entries[KeyForCall(tc.Call.ID)]
		return value, ok
	}
	return "", false
}

// ShouldInclude reports whether cached reasoning should be attached to the
// next request for this conversation: never on a new turn, and only when the
// nearest assistant message with tool calls actually has a stored value.
func (s *ThinkingStore) ShouldInclude(messages []model.Message) bool {
	if len(messages) == 0 {
		return false
	}
	if model.ClassifyTurn(messages) == model.NewTurn {
		return false
	}
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != model.RoleAssistant || !msg.HasToolCalls() {
			continue
		}
		value, ok := s.GetForMessage(msg)
		return ok && value != ""
	}
	return false
}
