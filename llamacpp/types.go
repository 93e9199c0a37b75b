// Package llamacpp implements the wire client for a llama.cpp server
// (llama-server or a llama-swap proxy in front of it): the OpenAI-compatible
// streaming chat endpoint plus the server's own /models, /tokenize and
// /infill endpoints.
//
// The streaming path is deliberately hand-rolled. The server's dialect
// carries fields no general-purpose SDK models (reasoning_content deltas,
// reasoning_format, parse_tool_calls) and the consumer needs tool calls
// reassembled from fragmented deltas before they are surfaced. See stream.go.
package llamacpp

import (
	"encoding/json"
	"strings"

	"llamedit/model"
)

// WireMessage is one message in the chat-completion request body.
// Content is a pointer so "no text" serializes as null, never "".
type WireMessage struct {
	Role             string         `json:"role"`
	Content          *string        `json:"content"`
	ToolCalls        []WireToolCall `json:"tool_calls,omitempty"`
	ToolCallID       string         `json:"tool_call_id,omitempty"`
	ReasoningContent string         `json:"reasoning_content,omitempty"`
}

// WireToolCall is a completed tool call attached to an assistant message.
type WireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function WireFunctionCall `json:"function"`
}

// WireFunctionCall carries the function name and its arguments as a JSON
// document in string form.
type WireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// WireTool is a tool definition in the wire function-calling schema.
type WireTool struct {
	Type     string       `json:"type"`
	Function WireFunction `json:"function"`
}

type WireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatRequest is the body for POST /v1/chat/completions. Extra holds merged
// endpoint/model override fields; they are flattened into the JSON object but
// never shadow an explicitly set field.
type ChatRequest struct {
	Model             string         `json:"model"`
	Messages          []WireMessage  `json:"messages"`
	Tools             []WireTool     `json:"tools,omitempty"`
	ToolChoice        string         `json:"tool_choice,omitempty"`
	Stream            bool           `json:"stream"`
	MaxTokens         int            `json:"max_tokens,omitempty"`
	ReasoningFormat   string         `json:"reasoning_format,omitempty"`
	ParseToolCalls    bool           `json:"parse_tool_calls,omitempty"`
	ParallelToolCalls bool           `json:"parallel_tool_calls,omitempty"`

	Extra map[string]any `json:"-"`
}

func (r ChatRequest) MarshalJSON() ([]byte, error) {
	type plain ChatRequest
	base, err := json.Marshal(plain(r))
	if err != nil || len(r.Extra) == 0 {
		return base, err
	}

	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, set := merged[k]; !set {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// streamChunk is one decoded SSE payload from the chat-completion stream.
type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Delta        streamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

type streamDelta struct {
	Content          string          `json:"content,omitempty"`
	ReasoningContent string          `json:"reasoning_content,omitempty"`
	ToolCalls        []toolCallDelta `json:"tool_calls,omitempty"`
}

// toolCallDelta is one fragment of a tool call. Index positions the call
// within the assistant turn; id, name and arguments may arrive spread over
// any number of deltas.
type toolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function,omitempty"`
}

// EventKind tags a StreamEvent.
type EventKind int

const (
	EventText EventKind = iota
	EventThinking
	EventToolCall
)

// StreamEvent is one typed event produced by the stream parser. Text holds
// the payload for EventText and EventThinking; ToolCall is only valid for
// EventToolCall and is always complete (id, name and parsed arguments).
type StreamEvent struct {
	Kind     EventKind
	Text     string
	ToolCall model.ToolCall
}

// ModelEntry is one model reported by GET /models.
type ModelEntry struct {
	ID          string
	Status      string
	ContextSize int
	Embeddings  bool
}

type modelsResponse struct {
	Data []wireModel `json:"data"`
}

type wireModel struct {
	ID     string       `json:"id"`
	Status *modelStatus `json:"status,omitempty"`
}

type modelStatus struct {
	Value string  `json:"value"`
	Args  argList `json:"args,omitempty"`
}

// argList tolerates the server reporting launch args either as an array or
// as a single command-line string.
type argList []string

func (a *argList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = strings.Fields(s)
	return nil
}

type tokenizeRequest struct {
	Content      string `json:"content"`
	Model        string `json:"model,omitempty"`
	AddSpecial   bool   `json:"add_special"`
	ParseSpecial bool   `json:"parse_special"`
	WithPieces   bool   `json:"with_pieces"`
}

type tokenizeResponse struct {
	Tokens []json.RawMessage `json:"tokens"`
}

// InfillDocument is one extra context document for a fill-in-the-middle
// request.
type InfillDocument struct {
	Filename string `json:"filename,omitempty"`
	Text     string `json:"text"`
}

// InfillRequest is the body for POST /infill.
type InfillRequest struct {
	InputPrefix string           `json:"input_prefix"`
	InputSuffix string           `json:"input_suffix"`
	InputExtra  []InfillDocument `json:"input_extra,omitempty"`
	Stream      bool             `json:"stream"`
	NPredict    int              `json:"n_predict"`
	Model       string           `json:"model,omitempty"`
}

type infillResponse struct {
	Content string `json:"content"`
}
