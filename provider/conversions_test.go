package provider

import (
	"encoding/json"
	"errors"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"llamedit/llamacpp"
	"llamedit/model"
)

func TestToWireMessagesRoles(t *testing.T) {
	messages := []model.Message{
		model.NewTextMessage(model.RoleSystem, "be terse"),
		model.NewTextMessage(model.RoleUser, "hello"),
		model.NewTextMessage(model.RoleAssistant, "hi"),
	}

	wire, err := ToWireMessages(messages, nil, true)
	if err != nil {
		t.Fatalf("ToWireMessages: %v", err)
	}
	if len(wire) != 3 {
		t.Fatalf("len = %d, want 3", len(wire))
	}

	wantRoles := []string{"system", "user", "assistant"}
	for i, want := range wantRoles {
		if wire[i].Role != want {
			t.Errorf("wire[%d].Role = %q, want %q", i, wire[i].Role, want)
		}
	}
	if wire[1].Content == nil || *wire[1].Content != "hello" {
		t.Errorf("wire[1].Content = %v", wire[1].Content)
	}
}

func TestToWireMessagesAssistantToolCalls(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleAssistant, Parts: []model.Part{
			model.ToolCallPart{Call: model.ToolCall{
				ID:        "call_1",
				Name:      "get_weather",
				Arguments: map[string]any{"city": "Berlin"},
			}},
		}},
	}

	wire, err := ToWireMessages(messages, nil, true)
	if err != nil {
		t.Fatalf("ToWireMessages: %v", err)
	}
	if len(wire) != 1 {
		t.Fatalf("len = %d, want 1", len(wire))
	}

	msg := wire[0]
	// Tool-call-only assistant messages carry null content, not "".
	if msg.Content != nil {
		t.Errorf("Content = %q, want nil", *msg.Content)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("ToolCalls = %d, want 1", len(msg.ToolCalls))
	}
	call := msg.ToolCalls[0]
	if call.ID != "call_1" || call.Type != "function" || call.Function.Name != "get_weather" {
		t.Errorf("call = %+v", call)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		t.Fatalf("arguments are not valid JSON: %v", err)
	}
	if args["city"] != "Berlin" {
		t.Errorf("arguments = %v", args)
	}
}

func TestToWireMessagesToolResultExplosion(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleUser, Parts: []model.Part{
			model.ToolResultPart{CallID: "call_1", Text: "sunny"},
			model.ToolResultPart{CallID: "call_2", Text: "72F"},
			model.TextPart{Text: "also consider humidity"},
		}},
	}

	wire, err := ToWireMessages(messages, nil, false)
	if err != nil {
		t.Fatalf("ToWireMessages: %v", err)
	}
	if len(wire) != 3 {
		t.Fatalf("len = %d, want 2 tool messages + 1 user", len(wire))
	}

	if wire[0].Role != "tool" || wire[0].ToolCallID != "call_1" || *wire[0].Content != "sunny" {
		t.Errorf("wire[0] = %+v", wire[0])
	}
	if wire[1].Role != "tool" || wire[1].ToolCallID != "call_2" || *wire[1].Content != "72F" {
		t.Errorf("wire[1] = %+v", wire[1])
	}
	if wire[2].Role != "user" || *wire[2].Content != "also consider humidity" {
		t.Errorf("wire[2] = %+v", wire[2])
	}
}

func TestToWireMessagesReasoningAttachment(t *testing.T) {
	assistant := model.Message{
		Role: model.RoleAssistant,
		Parts: []model.Part{
			model.ToolCallPart{Call: model.ToolCall{ID: "call_1", Name: "f", Arguments: map[string]any{}}},
		},
	}
	lookup := func(msg model.Message) (string, bool) {
		return "earlier reasoning", true
	}

	tests := []struct {
		name      string
		lookup    ThinkingLookup
		isNewTurn bool
		want      string
	}{
		{"continuation with lookup", lookup, false, "earlier reasoning"},
		{"new turn suppresses reasoning", lookup, true, ""},
		{"no lookup", nil, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := ToWireMessages([]model.Message{assistant}, tt.lookup, tt.isNewTurn)
			if err != nil {
				t.Fatalf("ToWireMessages: %v", err)
			}
			if wire[0].ReasoningContent != tt.want {
				t.Errorf("ReasoningContent = %q, want %q", wire[0].ReasoningContent, tt.want)
			}
		})
	}
}

type smuggledPart struct{ model.TextPart }

func TestToWireMessagesUnknownPart(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleUser, Parts: []model.Part{smuggledPart{}}},
	}

	_, err := ToWireMessages(messages, nil, true)
	if err == nil {
		t.Fatal("expected error for unknown part type")
	}
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("error type = %T, want *FormatError", err)
	}
}

func TestFromWireMessage(t *testing.T) {
	content := "hello"
	msg := llamacpp.WireMessage{
		Role:             "assistant",
		Content:          &content,
		ReasoningContent: "thought about it",
		ToolCalls: []llamacpp.WireToolCall{
			{ID: "a", Type: "function", Function: llamacpp.WireFunctionCall{Name: "f", Arguments: `{"x":1}`}},
			{ID: "b", Type: "function", Function: llamacpp.WireFunctionCall{Name: "g", Arguments: `{broken`}},
		},
	}

	reply := FromWireMessage(msg)
	if reply.Text != "hello" || reply.ReasoningContent != "thought about it" {
		t.Errorf("reply = %+v", reply)
	}
	// The unparseable call is dropped, the good one survives.
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].ID != "a" {
		t.Errorf("ToolCalls = %+v", reply.ToolCalls)
	}
}

func TestRoundTrip(t *testing.T) {
	original := []model.Message{
		model.NewTextMessage(model.RoleUser, "question"),
		{Role: model.RoleAssistant, Parts: []model.Part{
			model.TextPart{Text: "checking"},
			model.ToolCallPart{Call: model.ToolCall{ID: "a", Name: "f", Arguments: map[string]any{"k": "v"}}},
		}},
	}

	wire, err := ToWireMessages(original, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	reply := FromWireMessage(wire[1])
	if reply.Text != "checking" {
		t.Errorf("Text = %q", reply.Text)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Arguments["k"] != "v" {
		t.Errorf("ToolCalls = %+v", reply.ToolCalls)
	}
}

func TestToWireTools(t *testing.T) {
	if got := ToWireTools(nil); got != nil {
		t.Errorf("ToWireTools(nil) = %v, want nil", got)
	}

	tools := []mcptypes.Tool{
		{
			Name:        "read_file",
			Description: "Read a file",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"path": map[string]any{"type": "string"},
				},
				Required: []string{"path"},
			},
		},
	}

	wire := ToWireTools(tools)
	if len(wire) != 1 {
		t.Fatalf("len = %d", len(wire))
	}
	fn := wire[0].Function
	if fn.Name != "read_file" || fn.Description != "Read a file" {
		t.Errorf("function = %+v", fn)
	}
	if fn.Parameters["type"] != "object" {
		t.Errorf("parameters = %v", fn.Parameters)
	}
	required, _ := fn.Parameters["required"].([]string)
	if len(required) != 1 || required[0] != "path" {
		t.Errorf("required = %v", fn.Parameters["required"])
	}
}
