// Package provider implements model.Provider on top of the llamacpp wire
// client: it builds requests from editor-native messages, consumes the event
// stream, maintains thinking-token state across turns and intercepts the
// synthetic project-rule tool.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"llamedit/config"
	"llamedit/infill"
	"llamedit/llamacpp"
	"llamedit/model"
	"llamedit/rules"
	"llamedit/session"
)

// RuleToolName is the reserved name of the synthetic project-rule tool. The
// provider always intercepts calls to it; they are never surfaced to the
// caller's tool execution.
const RuleToolName = "get-project-rule"

const configHintText = "check your llamedit endpoint configuration"

// LlamaProvider routes chat, token-count and infill requests to the
// llama.cpp endpoint named by the active model reference.
type LlamaProvider struct {
	cfg      *config.Config
	rules    *rules.Collection    // nil when the project has no rules
	store    *session.ThinkingStore
	modelRef string
}

// NewLlamaProvider creates a provider. ruleSet may be nil; store must not.
func NewLlamaProvider(cfg *config.Config, ruleSet *rules.Collection, store *session.ThinkingStore, modelRef string) (*LlamaProvider, error) {
	if cfg == nil {
		return nil, configErrorf("configuration is required")
	}
	if store == nil {
		return nil, configErrorf("thinking store is required")
	}
	return &LlamaProvider{
		cfg:      cfg,
		rules:    ruleSet,
		store:    store,
		modelRef: modelRef,
	}, nil
}

// resolve maps the active model reference onto its endpoint and builds a
// wire client with merged endpoint/model options.
func (p *LlamaProvider) resolve() (modelID string, endpointID string, client *llamacpp.Client, opts config.RequestOptions, err error) {
	modelID, endpointID, err = ParseModelRef(p.modelRef)
	if err != nil {
		return "", "", nil, opts, err
	}
	ep, ok := p.cfg.Endpoint(endpointID)
	if !ok {
		return "", "", nil, opts, configErrorf("unknown endpoint %q in model reference %q", endpointID, p.modelRef)
	}
	opts = ep.Options(modelID)
	client = llamacpp.NewClient(ep.BaseURL, p.cfg.APIKey(endpointID), opts.Headers, opts.Timeout)
	return modelID, endpointID, client, opts, nil
}

// Chat implements model.Provider.Chat by delegating to ChatWithTools.
func (p *LlamaProvider) Chat(ctx context.Context, messages []model.Message, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, 0, callback)
}

// ChatWithTools drives one conversation turn: build the wire request, stream
// events to the callback, feed thinking tokens into the store, and resolve
// intercepted rule-tool calls through one synthesized follow-up round.
//
// Exactly one error, if any, escapes. It is also reported to the callback as
// text, decorated with a configuration hint, so the caller's surface shows a
// single coherent message instead of a wrapped transport failure.
func (p *LlamaProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, maxTokens int, callback model.StreamCallback) (err error) {
	defer func() {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		if !strings.Contains(err.Error(), configHintText) {
			err = fmt.Errorf("%w (%s)", err, configHintText)
		}
		if callback != nil {
			callback(err.Error(), nil)
		}
	}()

	modelID, _, client, opts, err := p.resolve()
	if err != nil {
		return err
	}

	turn := model.ClassifyTurn(messages)
	if turn == model.NewTurn {
		p.store.Clear()
	}

	var lookup ThinkingLookup
	if p.store.ShouldInclude(messages) {
		lookup = p.store.GetForMessage
	}

	wireMsgs, err := ToWireMessages(messages, lookup, turn == model.NewTurn)
	if err != nil {
		return err
	}

	callerTools := ToWireTools(tools)
	wireTools := callerTools
	if ruleTool := p.ruleTool(); ruleTool != nil {
		wireTools = append(append([]llamacpp.WireTool{}, callerTools...), *ruleTool)
	}

	req := &llamacpp.ChatRequest{
		Model:             modelID,
		Messages:          wireMsgs,
		Tools:             wireTools,
		MaxTokens:         maxTokens,
		ReasoningFormat:   "deepseek",
		ParseToolCalls:    true,
		ParallelToolCalls: true,
		Extra:             opts.Extra,
	}
	if len(wireTools) > 0 {
		req.ToolChoice = "auto"
	}

	stream, err := client.ChatStream(ctx, req)
	if err != nil {
		return err
	}
	ruleNames, err := p.consumeStream(stream, callback, true)
	if err != nil {
		return err
	}

	if len(ruleNames) == 0 {
		return nil
	}

	// Exactly one follow-up round, with the rule tool withheld so the model
	// cannot invoke it again.
	fetched := fmt.Sprintf("Fetching project rule(s): %s.", strings.Join(ruleNames, ", "))
	resolved := p.resolveRules(ruleNames)

	if callback != nil {
		if err := callback(fetched+"\n", nil); err != nil {
			return err
		}
		if err := callback(resolved+"\n", nil); err != nil {
			return err
		}
	}

	followMsgs := append(wireMsgs,
		llamacpp.WireMessage{Role: "assistant", Content: &fetched},
		llamacpp.WireMessage{Role: "user", Content: &resolved},
	)
	followReq := &llamacpp.ChatRequest{
		Model:             modelID,
		Messages:          followMsgs,
		Tools:             callerTools,
		MaxTokens:         maxTokens,
		ReasoningFormat:   "deepseek",
		ParseToolCalls:    true,
		ParallelToolCalls: true,
		Extra:             opts.Extra,
	}
	if len(callerTools) > 0 {
		followReq.ToolChoice = "auto"
	}

	followStream, err := client.ChatStream(ctx, followReq)
	if err != nil {
		return err
	}
	// Thinking from the follow-up is intentionally discarded.
	if _, err := p.consumeStream(followStream, callback, false); err != nil {
		return err
	}
	return nil
}

// consumeStream pulls events off a stream, reporting text and tool calls and
// collecting intercepted rule names. Thinking fragments are buffered and, on
// the next tool-call event, persisted under that call's key; a leftover
// buffer at stream end goes under a fallback key so it is not lost.
func (p *LlamaProvider) consumeStream(stream *llamacpp.Stream, callback model.StreamCallback, persistThinking bool) ([]string, error) {
	defer stream.Close()

	var ruleNames []string
	var thinking strings.Builder

	for stream.Next() {
		ev := stream.Current()
		switch ev.Kind {
		case llamacpp.EventText:
			if callback != nil {
				if err := callback(ev.Text, nil); err != nil {
					return ruleNames, err
				}
			}

		case llamacpp.EventThinking:
			if persistThinking {
				thinking.WriteString(ev.Text)
			}

		case llamacpp.EventToolCall:
			call := ev.ToolCall
			if persistThinking && thinking.Len() > 0 {
				p.store.Set(session.KeyForCall(call.ID), thinking.String())
				thinking.Reset()
			}
			if call.Name == RuleToolName {
				ruleNames = append(ruleNames, ruleNamesFromArgs(call.Arguments)...)
				continue
			}
			if callback != nil {
				if err := callback("", []model.ToolCall{call}); err != nil {
					return ruleNames, err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return ruleNames, err
	}

	if persistThinking && thinking.Len() > 0 {
		p.store.Set(session.FallbackKey(), thinking.String())
	}
	return ruleNames, nil
}

// ruleTool builds the synthetic project-rule tool, or nil when the project
// has no rules to offer.
func (p *LlamaProvider) ruleTool() *llamacpp.WireTool {
	if p.rules == nil || p.rules.Len() == 0 {
		return nil
	}
	return &llamacpp.WireTool{
		Type: "function",
		Function: llamacpp.WireFunction{
			Name:        RuleToolName,
			Description: p.rules.ToolDescription(),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"rule": map[string]any{
						"type":        "string",
						"description": "Comma-separated name(s) of the rule(s) to fetch",
					},
				},
				"required": []string{"rule"},
			},
		},
	}
}

// ruleNamesFromArgs extracts the comma-separated rule names from a rule-tool
// call's arguments.
func ruleNamesFromArgs(args map[string]any) []string {
	raw, _ := args["rule"].(string)
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// resolveRules resolves each requested name independently; misses produce
// placeholder content rather than failing the call.
func (p *LlamaProvider) resolveRules(names []string) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		if p.rules == nil {
			parts = append(parts, fmt.Sprintf("(rule %q not found)", name))
			continue
		}
		parts = append(parts, p.rules.Resolve(name))
	}
	return strings.Join(parts, "\n\n")
}

// CountTokens implements model.Provider.CountTokens. Token counting is best
// effort; any failure yields zero and must never block the chat flow.
func (p *LlamaProvider) CountTokens(ctx context.Context, message model.Message) int {
	modelID, _, client, _, err := p.resolve()
	if err != nil {
		return 0
	}
	count, err := client.Tokenize(ctx, message.Text(), modelID)
	if err != nil {
		debugTokenizeFailure(err)
		return 0
	}
	return count
}

func debugTokenizeFailure(err error) {
	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] tokenize failed: %v", err)
	}
}

// Infill sends a fill-in-the-middle request built from an infill.Context.
func (p *LlamaProvider) Infill(ctx context.Context, fim infill.Context) (string, error) {
	modelID, _, client, _, err := p.resolve()
	if err != nil {
		return "", err
	}

	req := llamacpp.InfillRequest{
		InputPrefix: fim.Prefix,
		InputSuffix: fim.Suffix,
		Model:       modelID,
	}
	for _, doc := range fim.Extra {
		req.InputExtra = append(req.InputExtra, llamacpp.InfillDocument{
			Filename: doc.Name,
			Text:     doc.Text,
		})
	}
	return client.Infill(ctx, req)
}

// ListModels aggregates the models of every configured endpoint. Endpoints
// that do not answer are skipped so one dead server does not hide the rest.
func (p *LlamaProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	var infos []model.ModelInfo
	for i := range p.cfg.Endpoints {
		ep := &p.cfg.Endpoints[i]
		client := llamacpp.NewClient(ep.BaseURL, p.cfg.APIKey(ep.ID), ep.Headers, ep.Timeout())
		entries, err := client.ListModels(ctx)
		if err != nil {
			if config.Debug && config.DebugLog != nil {
				config.DebugLog.Printf("[Provider] endpoint %s: list models failed: %v", ep.ID, err)
			}
			continue
		}
		for _, entry := range entries {
			infos = append(infos, model.ModelInfo{
				ID:          entry.ID,
				Endpoint:    ep.ID,
				Status:      entry.Status,
				ContextSize: entry.ContextSize,
				Embeddings:  entry.Embeddings,
			})
		}
	}
	return infos, nil
}

// GetModel implements model.Provider.GetModel.
func (p *LlamaProvider) GetModel() string {
	return p.modelRef
}

// GetDisplayName implements model.Provider.GetDisplayName.
func (p *LlamaProvider) GetDisplayName() string {
	return DisplayName(p.modelRef)
}

// SetModel implements model.Provider.SetModel.
func (p *LlamaProvider) SetModel(ref string) {
	p.modelRef = ref
}

// Ping implements model.Provider.Ping against the active endpoint.
func (p *LlamaProvider) Ping(ctx context.Context) error {
	_, _, client, _, err := p.resolve()
	if err != nil {
		return err
	}
	return client.Ping(ctx)
}
