package config

func DefaultSettings() *Settings {
	return &Settings{
		DataDirectory: GetDefaultDataDir(),
		Security:      SecuritySettings{Method: "plaintext"},
		Endpoints: []EndpointConfig{
			{
				ID:      "local",
				BaseURL: "http://localhost:8080",
			},
		},
	}
}

func GenerateSettingsTemplate() string {
	return `# llamedit Configuration
# Location: ~/.config/llamedit/settings.toml
# This file uses TOML format: https://toml.io

# Directory where transcripts, credentials and logs are stored
data_directory = "~/.local/share/llamedit"

# Default model reference. The part after '@' names an endpoint below.
# default_model = "qwen2.5-coder@local"

[security]
# How API tokens are stored: "plaintext" or "ssh_key"
method = "plaintext"
# ssh_key_path = "~/.ssh/id_ed25519"

[[endpoints]]
id = "local"
base_url = "http://localhost:8080"
# Per-request timeout in seconds (default 120)
# timeout_seconds = 120

# Static headers sent with every request to this endpoint
# [endpoints.headers]
# "X-Proxy-Profile" = "dev"

# Extra request-body fields sent with every chat request
# [endpoints.extra]
# temperature = 0.2

# Per-model overrides (headers and extra fields win over endpoint values)
# [[endpoints.models]]
# id = "qwen2.5-coder"
# context_size = 32768
`
}
