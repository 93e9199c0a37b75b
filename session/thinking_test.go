package session

import (
	"strings"
	"testing"

	"llamedit/model"
)

func assistantWithCall(callID string) model.Message {
	return model.Message{
		Role: model.RoleAssistant,
		Parts: []model.Part{
			model.ToolCallPart{Call: model.ToolCall{ID: callID, Name: "f", Arguments: map[string]any{}}},
		},
	}
}

func toolResultFor(callID string) model.Message {
	return model.Message{
		Role:  model.RoleUser,
		Parts: []model.Part{model.ToolResultPart{CallID: callID, Text: "ok"}},
	}
}

func TestKeyForCall(t *testing.T) {
	if got := KeyForCall("abc"); got != "toolCall_abc" {
		t.Errorf("KeyForCall = %q", got)
	}
}

func TestFallbackKeyShape(t *testing.T) {
	if !strings.HasPrefix(FallbackKey(), "thinking_") {
		t.Errorf("FallbackKey = %q, want thinking_ prefix", FallbackKey())
	}
}

func TestGetForMessage(t *testing.T) {
	store := NewThinkingStore()
	store.Set(KeyForCall("abc"), "reasoning here")

	if got, ok := store.GetForMessage(assistantWithCall("abc")); !ok || got != "reasoning here" {
		t.Errorf("GetForMessage = %q, %v", got, ok)
	}
	if _, ok := store.GetForMessage(assistantWithCall("other")); ok {
		t.Error("GetForMessage found value for unknown call")
	}
	if _, ok := store.GetForMessage(model.NewTextMessage(model.RoleAssistant, "plain")); ok {
		t.Error("GetForMessage found value for message without tool calls")
	}
}

func TestGetForMessageUsesFirstCall(t *testing.T) {
	store := NewThinkingStore()
	store.Set(KeyForCall("first"), "for first")
	store.Set(KeyForCall("second"), "for second")

	msg := model.Message{
		Role: model.RoleAssistant,
		Parts: []model.Part{
			model.ToolCallPart{Call: model.ToolCall{ID: "first", Name: "f"}},
			model.ToolCallPart{Call: model.ToolCall{ID: "second", Name: "g"}},
		},
	}
	if got, _ := store.GetForMessage(msg); got != "for first" {
		t.Errorf("GetForMessage = %q, want the first call's value", got)
	}
}

func TestShouldInclude(t *testing.T) {
	continuation := []model.Message{
		model.NewTextMessage(model.RoleUser, "weather?"),
		assistantWithCall("abc"),
		toolResultFor("abc"),
	}

	t.Run("empty store", func(t *testing.T) {
		if NewThinkingStore().ShouldInclude(continuation) {
			t.Error("ShouldInclude = true with nothing stored")
		}
	})

	t.Run("new turn", func(t *testing.T) {
		store := NewThinkingStore()
		store.Set(KeyForCall("abc"), "thinking")
		newTurn := []model.Message{model.NewTextMessage(model.RoleUser, "hi")}
		if store.ShouldInclude(newTurn) {
			t.Error("ShouldInclude = true on a new turn")
		}
	})

	t.Run("continuation with stored thinking", func(t *testing.T) {
		store := NewThinkingStore()
		store.Set(KeyForCall("abc"), "thinking")
		if !store.ShouldInclude(continuation) {
			t.Error("ShouldInclude = false, want true")
		}
	})

	t.Run("continuation with thinking for a different call", func(t *testing.T) {
		store := NewThinkingStore()
		store.Set(KeyForCall("unrelated"), "thinking")
		if store.ShouldInclude(continuation) {
			t.Error("ShouldInclude = true for an unrelated call")
		}
	})

	t.Run("nearest assistant wins", func(t *testing.T) {
		store := NewThinkingStore()
		store.Set(KeyForCall("old"), "stale")
		messages := []model.Message{
			model.NewTextMessage(model.RoleUser, "q"),
			assistantWithCall("old"),
			toolResultFor("old"),
			assistantWithCall("new"),
			toolResultFor("new"),
		}
		// Only the most recent tool-calling assistant message counts.
		if store.ShouldInclude(messages) {
			t.Error("ShouldInclude = true based on a stale entry")
		}
		store.Set(KeyForCall("new"), "fresh")
		if !store.ShouldInclude(messages) {
			t.Error("ShouldInclude = false with a fresh entry")
		}
	})
}

func TestClear(t *testing.T) {
	store := NewThinkingStore()
	store.Set(KeyForCall("a"), "x")
	store.Set(FallbackKey(), "y")
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", store.Len())
	}
}
