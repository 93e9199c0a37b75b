package provider

import (
	"llamedit/config"
	"llamedit/rules"
	"llamedit/session"
)

// NewProvider builds the provider for a loaded configuration, routed to the
// configured default model. The reference is validated up front so a broken
// configuration fails at startup rather than on the first request.
func NewProvider(cfg *config.Config, ruleSet *rules.Collection, store *session.ThinkingStore) (*LlamaProvider, error) {
	if cfg == nil || cfg.DefaultModel == "" {
		return nil, configErrorf("no default model configured; set default_model = \"<model>@<endpoint>\" in settings.toml")
	}
	if _, _, err := ParseModelRef(cfg.DefaultModel); err != nil {
		return nil, err
	}
	return NewLlamaProvider(cfg, ruleSet, store, cfg.DefaultModel)
}
