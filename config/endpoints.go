package config

import "time"

// EndpointConfig describes one named llama.cpp server endpoint. Endpoint
// fields act as defaults; per-model fields override them on every request.
type EndpointConfig struct {
	ID             string            `toml:"id"`
	BaseURL        string            `toml:"base_url"`
	TimeoutSeconds int               `toml:"timeout_seconds,omitempty"`
	Headers        map[string]string `toml:"headers,omitempty"`
	Extra          map[string]any    `toml:"extra,omitempty"`
	Models         []ModelConfig     `toml:"models,omitempty"`
}

// ModelConfig overrides endpoint defaults for one model served there.
type ModelConfig struct {
	ID          string            `toml:"id"`
	ContextSize int               `toml:"context_size,omitempty"`
	Headers     map[string]string `toml:"headers,omitempty"`
	Extra       map[string]any    `toml:"extra,omitempty"`
}

// RequestOptions is the merged, per-request view of endpoint and model
// configuration. Merge order is endpoint first, model second, so model
// values win.
type RequestOptions struct {
	Headers     map[string]string
	Extra       map[string]any
	Timeout     time.Duration
	ContextSize int
}

// Model looks up the per-model override block for a bare model id.
func (e *EndpointConfig) Model(id string) (*ModelConfig, bool) {
	for i := range e.Models {
		if e.Models[i].ID == id {
			return &e.Models[i], true
		}
	}
	return nil, false
}

// Timeout returns the configured request timeout, defaulting to two minutes.
func (e *EndpointConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// Options merges endpoint defaults with the overrides for one model.
func (e *EndpointConfig) Options(modelID string) RequestOptions {
	opts := RequestOptions{
		Headers: map[string]string{},
		Extra:   map[string]any{},
		Timeout: e.Timeout(),
	}
	for k, v := range e.Headers {
		opts.Headers[k] = v
	}
	for k, v := range e.Extra {
		opts.Extra[k] = v
	}

	if mc, ok := e.Model(modelID); ok {
		for k, v := range mc.Headers {
			opts.Headers[k] = v
		}
		for k, v := range mc.Extra {
			opts.Extra[k] = v
		}
		opts.ContextSize = mc.ContextSize
	}
	return opts
}
