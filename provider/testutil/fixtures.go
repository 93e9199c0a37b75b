package testutil

import "llamedit/model"

// Conversation returns a short sample conversation.
func Conversation() []model.Message {
	return []model.Message{
		model.NewTextMessage(model.RoleUser, "Hello, how are you?"),
		model.NewTextMessage(model.RoleAssistant, "Doing well, thanks."),
		model.NewTextMessage(model.RoleUser, "Can you help me with a task?"),
	}
}

// SingleUserMessage returns a one-message conversation.
func SingleUserMessage(text string) []model.Message {
	return []model.Message{model.NewTextMessage(model.RoleUser, text)}
}

// ToolCallExchange returns a conversation whose trailing message supplies a
// tool result, i.e. a continuation.
func ToolCallExchange() []model.Message {
	return []model.Message{
		model.NewTextMessage(model.RoleUser, "What's the weather in Berlin?"),
		{
			Role: model.RoleAssistant,
			Parts: []model.Part{
				model.ToolCallPart{Call: model.ToolCall{
					ID:        "call_1",
					Name:      "get_weather",
					Arguments: map[string]any{"city": "Berlin"},
				}},
			},
		},
		{
			Role: model.RoleUser,
			Parts: []model.Part{
				model.ToolResultPart{CallID: "call_1", Text: "18C, light rain"},
			},
		},
	}
}
