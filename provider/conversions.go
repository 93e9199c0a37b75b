package provider

import (
	"encoding/json"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"llamedit/config"
	"llamedit/llamacpp"
	"llamedit/model"
)

// FormatError reports a message part the converter does not recognize.
// Unknown parts fail the conversion; they are never silently dropped.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string {
	return e.msg
}

// ThinkingLookup resolves cached reasoning content for an assistant message
// carrying tool calls.
type ThinkingLookup func(model.Message) (string, bool)

// ToWireMessages converts editor-native messages into the wire format.
//
// Reasoning content is attached only when a lookup is supplied and the
// conversation continues an existing turn; on a new turn stale
// chain-of-thought must never leak into the request.
func ToWireMessages(messages []model.Message, lookup ThinkingLookup, isNewTurn bool) ([]llamacpp.WireMessage, error) {
	var out []llamacpp.WireMessage

	for i, msg := range messages {
		if err := checkParts(msg); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}

		switch {
		case msg.Role == model.RoleAssistant && msg.HasToolCalls():
			wire := llamacpp.WireMessage{
				Role:    "assistant",
				Content: textOrNull(msg.Text()),
			}
			for _, call := range msg.ToolCalls() {
				args, err := json.Marshal(call.Arguments)
				if err != nil {
					return nil, fmt.Errorf("message %d: failed to serialize arguments for tool call %q: %w", i, call.Name, err)
				}
				wire.ToolCalls = append(wire.ToolCalls, llamacpp.WireToolCall{
					ID:   call.ID,
					Type: "function",
					Function: llamacpp.WireFunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			if lookup != nil && !isNewTurn {
				if thinking, ok := lookup(msg); ok && thinking != "" {
					wire.ReasoningContent = thinking
				}
			}
			out = append(out, wire)

		case msg.HasToolResults():
			// One wire message per result, in original order; residual plain
			// text follows as a separate user message.
			for _, result := range msg.ToolResults() {
				out = append(out, llamacpp.WireMessage{
					Role:       "tool",
					Content:    textOrNull(result.Text),
					ToolCallID: result.CallID,
				})
			}
			if text := msg.Text(); text != "" {
				out = append(out, llamacpp.WireMessage{
					Role:    "user",
					Content: textOrNull(text),
				})
			}

		default:
			out = append(out, llamacpp.WireMessage{
				Role:    wireRole(msg.Role),
				Content: textOrNull(msg.Text()),
			})
		}
	}

	return out, nil
}

// AssistantReply is the editor-native view of one wire assistant message.
type AssistantReply struct {
	Text             string
	ToolCalls        []model.ToolCall
	ReasoningContent string
}

// FromWireMessage converts a wire assistant message back into editor-native
// form. A tool call whose arguments fail to parse as JSON is dropped and
// logged; it never aborts the whole conversion.
func FromWireMessage(msg llamacpp.WireMessage) AssistantReply {
	reply := AssistantReply{ReasoningContent: msg.ReasoningContent}
	if msg.Content != nil {
		reply.Text = *msg.Content
	}

	for _, call := range msg.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			if config.Debug && config.DebugLog != nil {
				config.DebugLog.Printf("[Provider] dropping tool call %q: bad arguments: %v", call.Function.Name, err)
			}
			continue
		}
		reply.ToolCalls = append(reply.ToolCalls, model.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: args,
		})
	}
	return reply
}

// ToWireTools converts tool definitions to the wire function-calling schema.
// An empty list yields nil so the request carries no tools field at all.
func ToWireTools(tools []mcptypes.Tool) []llamacpp.WireTool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]llamacpp.WireTool, len(tools))
	for i, tool := range tools {
		params := map[string]any{
			"type":       tool.InputSchema.Type,
			"properties": tool.InputSchema.Properties,
		}
		if len(tool.InputSchema.Required) > 0 {
			params["required"] = tool.InputSchema.Required
		}
		if tool.InputSchema.Defs != nil {
			params["$defs"] = tool.InputSchema.Defs
		}

		out[i] = llamacpp.WireTool{
			Type: "function",
			Function: llamacpp.WireFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		}
	}
	return out
}

// checkParts rejects any part outside the closed text/tool-call/tool-result
// set. The sum type makes this unreachable for well-formed callers, but a
// part smuggled in through embedding must fail loudly.
func checkParts(msg model.Message) error {
	for _, p := range msg.Parts {
		switch p.(type) {
		case model.TextPart, model.ToolCallPart, model.ToolResultPart:
		default:
			return &FormatError{msg: fmt.Sprintf("unrecognized message part %T", p)}
		}
	}
	return nil
}

// textOrNull maps empty text to null content, matching the wire convention
// that distinguishes "no text" from "empty text".
func textOrNull(text string) *string {
	if text == "" {
		return nil
	}
	return &text
}

func wireRole(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "user"
	case model.RoleAssistant:
		return "assistant"
	default:
		return "system"
	}
}
