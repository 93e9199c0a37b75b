package llamacpp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ServerError is a structured error body returned by the server with a
// non-2xx status. Its message is remediation-specific where the error type
// allows it.
type ServerError struct {
	Status        int
	Message       string
	Type          string
	Code          int
	NPromptTokens int
	NCtx          int
}

func (e *ServerError) Error() string {
	switch e.Type {
	case "exceed_context_size_error":
		return fmt.Sprintf("the request exceeds the model's context size (%d prompt tokens, %d context) - "+
			"shorten the conversation or start the server with a larger --ctx-size", e.NPromptTokens, e.NCtx)
	case "authentication_error":
		return fmt.Sprintf("the server rejected the API key: %s - check the token configured for this endpoint", e.Message)
	default:
		if e.Message != "" {
			return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Message)
		}
		return fmt.Sprintf("server error (HTTP %d)", e.Status)
	}
}

type serverErrorBody struct {
	Error struct {
		Message       string `json:"message"`
		Type          string `json:"type"`
		Code          int    `json:"code"`
		NPromptTokens int    `json:"n_prompt_tokens"`
		NCtx          int    `json:"n_ctx"`
	} `json:"error"`
}

// ParseServerError builds a ServerError from a non-2xx response body. Bodies
// that are not the structured {"error": ...} shape keep their raw text as
// the message.
func ParseServerError(status int, body []byte) *ServerError {
	var parsed serverErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return &ServerError{
			Status:        status,
			Message:       parsed.Error.Message,
			Type:          parsed.Error.Type,
			Code:          parsed.Error.Code,
			NPromptTokens: parsed.Error.NPromptTokens,
			NCtx:          parsed.Error.NCtx,
		}
	}
	return &ServerError{
		Status:  status,
		Message: strings.TrimSpace(string(body)),
	}
}

// ClassifyError maps a transport failure into a user-actionable message.
// The original error stays wrapped so callers can still inspect it.
func ClassifyError(baseURL string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case isTimeout(err):
		return fmt.Errorf("request to %s timed out - the model may still be loading; "+
			"increase timeout_seconds for this endpoint: %w", baseURL, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connection refused at %s - is the llama.cpp server running?: %w", baseURL, err)
	case errors.Is(err, syscall.ECONNRESET):
		return fmt.Errorf("connection reset by %s - the server may have crashed; check its logs: %w", baseURL, err)
	case isDNSError(err):
		return fmt.Errorf("cannot resolve the host in %s - check the endpoint base_url: %w", baseURL, err)
	default:
		return fmt.Errorf("network error talking to %s: %w", baseURL, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
