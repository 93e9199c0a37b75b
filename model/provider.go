package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts the inference backend behind provider-agnostic types.
//
// This interface is defined in the model package (not the provider package)
// to avoid import cycles: the provider implementation imports model, and the
// host can use the Provider interface without importing the provider package.
type Provider interface {
	// Chat sends messages and streams responses back via callback.
	Chat(ctx context.Context, messages []Message, callback StreamCallback) error

	// ChatWithTools sends messages with available tools and streams
	// responses. maxTokens caps output tokens for this request; zero means
	// no explicit cap.
	ChatWithTools(ctx context.Context, messages []Message, tools []mcptypes.Tool, maxTokens int, callback StreamCallback) error

	// CountTokens returns the server-side token count for a message's text.
	// Best effort: any failure yields zero, never an error.
	CountTokens(ctx context.Context, message Message) int

	// ListModels returns the models the backend currently serves.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the active model reference ("<model>@<endpoint>").
	GetModel() string

	// GetDisplayName returns the model name formatted for display, with the
	// endpoint suffix stripped.
	GetDisplayName() string

	// SetModel changes the active model reference.
	SetModel(model string)

	// Ping checks if the backend endpoint is reachable.
	Ping(ctx context.Context) error
}

// StreamCallback is called for each reported chunk of a streamed response.
// Text chunks and completed tool calls never share one invocation.
type StreamCallback func(chunk string, toolCalls []ToolCall) error

// ModelInfo describes one model served by an endpoint.
type ModelInfo struct {
	ID          string // Bare model id as the server reports it
	Endpoint    string // Endpoint id the model was discovered on
	Status      string // Load status reported by the server
	ContextSize int    // Context window, 0 when the server does not report it
	Embeddings  bool   // Whether the model was started in embeddings mode
}

// Ref returns the routable model reference "<model>@<endpoint>".
func (m ModelInfo) Ref() string {
	return m.ID + "@" + m.Endpoint
}
