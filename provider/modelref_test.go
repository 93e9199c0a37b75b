package provider

import (
	"errors"
	"testing"
)

func TestParseModelRef(t *testing.T) {
	tests := []struct {
		name         string
		ref          string
		wantModel    string
		wantEndpoint string
		wantErr      bool
	}{
		{"valid", "qwen-coder@local", "qwen-coder", "local", false},
		{"model contains at sign", "org@model@local", "org@model", "local", false},
		{"no separator", "qwen-coder", "", "", true},
		{"empty model", "@local", "", "", true},
		{"empty endpoint", "qwen-coder@", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, endpoint, err := ParseModelRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("error type = %T, want *ConfigError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if model != tt.wantModel || endpoint != tt.wantEndpoint {
				t.Errorf("= %q, %q; want %q, %q", model, endpoint, tt.wantModel, tt.wantEndpoint)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("qwen-coder@local"); got != "qwen-coder" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := DisplayName("bare"); got != "bare" {
		t.Errorf("DisplayName = %q, want unchanged", got)
	}
}
