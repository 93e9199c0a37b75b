package provider

import (
	"fmt"
	"strings"
)

// ConfigError is a fatal configuration problem: surfaced immediately, never
// retried, and never preceded by a network call.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return e.msg
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// ParseModelRef splits a routable model reference "<model>@<endpoint>". The
// endpoint suffix is mandatory - it is the only mechanism for routing a
// request to the right endpoint configuration.
func ParseModelRef(ref string) (modelID, endpointID string, err error) {
	idx := strings.LastIndex(ref, "@")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", configErrorf("invalid model reference %q: expected \"<model>@<endpoint>\"", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}

// DisplayName strips the endpoint suffix for display. A reference without a
// suffix is returned unchanged.
func DisplayName(ref string) string {
	if idx := strings.LastIndex(ref, "@"); idx > 0 {
		return ref[:idx]
	}
	return ref
}
