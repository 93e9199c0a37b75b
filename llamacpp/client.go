package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"llamedit/config"
)

// Connection reuse: outbound clients are pooled process-wide, keyed by the
// timeout in effect, so requests sharing a timeout share a transport.
var (
	poolMu     sync.Mutex
	clientPool = map[time.Duration]*http.Client{}
)

func pooledClient(timeout time.Duration) *http.Client {
	poolMu.Lock()
	defer poolMu.Unlock()
	if c, ok := clientPool[timeout]; ok {
		return c
	}
	c := &http.Client{Timeout: timeout}
	clientPool[timeout] = c
	return c
}

// Client talks to one llama.cpp server endpoint. It is cheap to construct;
// transports are shared through the process-wide pool.
type Client struct {
	baseURL string
	apiKey  string
	headers map[string]string
	timeout time.Duration
}

// NewClient creates a client for the given base URL. apiKey may be empty;
// headers are static headers sent with every request (endpoint and model
// overrides already merged by the caller).
func NewClient(baseURL, apiKey string, headers map[string]string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		headers: headers,
		timeout: timeout,
	}
}

// BaseURL returns the endpoint base URL the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// doJSON issues a request and decodes a JSON response body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := pooledClient(c.timeout).Do(req)
	if err != nil {
		return ClassifyError(c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return ParseServerError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ListModels fetches GET /models and extracts per-model capabilities from
// the reported launch arguments.
func (c *Client) ListModels(ctx context.Context) ([]ModelEntry, error) {
	var resp modelsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/models", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	entries := make([]ModelEntry, 0, len(resp.Data))
	for _, m := range resp.Data {
		entry := ModelEntry{ID: m.ID}
		if m.Status != nil {
			entry.Status = m.Status.Value
			entry.ContextSize = contextSizeFromArgs(m.Status.Args)
			entry.Embeddings = hasEmbeddingsFlag(m.Status.Args)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// contextSizeFromArgs scans server launch args for the context-size flag.
func contextSizeFromArgs(args []string) int {
	for i, arg := range args {
		if arg != "-c" && arg != "--ctx-size" {
			continue
		}
		if i+1 >= len(args) {
			return 0
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func hasEmbeddingsFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--embedding" || arg == "--embeddings" {
			return true
		}
	}
	return false
}

// Tokenize posts content to /tokenize and returns the token count.
func (c *Client) Tokenize(ctx context.Context, content, model string) (int, error) {
	req := tokenizeRequest{
		Content:      content,
		Model:        model,
		AddSpecial:   false,
		ParseSpecial: true,
		WithPieces:   false,
	}
	var resp tokenizeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/tokenize", req, &resp); err != nil {
		return 0, err
	}
	return len(resp.Tokens), nil
}

// Infill posts a fill-in-the-middle request and returns the predicted text.
func (c *Client) Infill(ctx context.Context, req InfillRequest) (string, error) {
	req.Stream = false
	if req.NPredict <= 0 {
		req.NPredict = 128
	}
	var resp infillResponse
	if err := c.doJSON(ctx, http.MethodPost, "/infill", req, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Ping checks that the endpoint answers on /models.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.ListModels(ctx)
	return err
}

// ChatStream opens a streaming chat completion. The returned Stream owns the
// response body; it is closed on every exit path (stop chunk, transport
// exhaustion, parse abort, or an explicit Close by the consumer).
func (c *Client) ChatStream(ctx context.Context, req *ChatRequest) (*Stream, error) {
	req.Stream = true

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/v1/chat/completions", req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := pooledClient(c.timeout).Do(httpReq)
	if err != nil {
		return nil, ClassifyError(c.baseURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if suggestion := c.proxyTimeoutHint(ctx, resp.StatusCode, raw); suggestion != "" {
			return nil, fmt.Errorf("%s", suggestion)
		}
		return nil, ParseServerError(resp.StatusCode, raw)
	}

	return newStream(ctx, resp.Body), nil
}

// proxyTimeoutHint handles the one 5xx shape that deserves a better message:
// an upstream proxy timing out while the model loads. A quick probe of the
// models endpoint decides whether the server itself is still healthy; probe
// failure degrades to the generic path (empty return).
func (c *Client) proxyTimeoutHint(ctx context.Context, status int, body []byte) string {
	if status < 500 || !bytes.Contains(bytes.ToLower(body), []byte("upstream request timeout")) {
		return ""
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := c.ListModels(probeCtx); err != nil {
		return ""
	}

	suggested := int((c.timeout * 2) / time.Second)
	return fmt.Sprintf("the proxy in front of %s timed out while the model was loading - "+
		"raise the proxy read timeout (try %d seconds) or preload the model", c.baseURL, suggested)
}

func debugf(format string, args ...any) {
	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf(format, args...)
	}
}
