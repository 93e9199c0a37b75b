// Package testutil provides mocks and fixtures shared by provider tests and
// by host code that tests against the Provider interface.
package testutil

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"llamedit/model"
)

// MockProvider implements model.Provider with overridable behavior.
type MockProvider struct {
	ChatFunc          func(ctx context.Context, messages []model.Message, callback model.StreamCallback) error
	ChatWithToolsFunc func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, maxTokens int, callback model.StreamCallback) error
	ListModelsFunc    func(ctx context.Context) ([]model.ModelInfo, error)
	CountTokensFunc   func(ctx context.Context, message model.Message) int
	PingFunc          func(ctx context.Context) error

	currentModel string
}

// NewMockProvider creates a mock provider with default canned responses.
func NewMockProvider(modelRef string) *MockProvider {
	m := &MockProvider{currentModel: modelRef}
	m.ChatFunc = m.defaultChat
	m.ChatWithToolsFunc = m.defaultChatWithTools
	m.ListModelsFunc = m.defaultListModels
	m.CountTokensFunc = m.defaultCountTokens
	m.PingFunc = func(context.Context) error { return nil }
	return m
}

func (m *MockProvider) defaultChat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	if len(messages) > 0 {
		return callback("Mock response", nil)
	}
	return nil
}

func (m *MockProvider) defaultChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, maxTokens int, callback model.StreamCallback) error {
	return callback("Mock response with tools", nil)
}

func (m *MockProvider) defaultListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return []model.ModelInfo{
		{ID: "mock-model-1", Endpoint: "mock", Status: "ready", ContextSize: 8192},
		{ID: "mock-model-2", Endpoint: "mock", Status: "ready", ContextSize: 32768},
	}, nil
}

func (m *MockProvider) defaultCountTokens(ctx context.Context, message model.Message) int {
	// Rough approximation, good enough for budget-related assertions.
	return len(message.Text()) / 4
}

func (m *MockProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return m.ChatFunc(ctx, messages, callback)
}

func (m *MockProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, maxTokens int, callback model.StreamCallback) error {
	return m.ChatWithToolsFunc(ctx, messages, tools, maxTokens, callback)
}

func (m *MockProvider) CountTokens(ctx context.Context, message model.Message) int {
	return m.CountTokensFunc(ctx, message)
}

func (m *MockProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return m.ListModelsFunc(ctx)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

// GetDisplayName returns the same value as GetModel; the mock does not strip
// endpoint suffixes.
func (m *MockProvider) GetDisplayName() string {
	return m.currentModel
}

func (m *MockProvider) SetModel(modelRef string) {
	m.currentModel = modelRef
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}
