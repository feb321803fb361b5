package main

const configTemplate = `# {{ index .Help "model" }}
default-model: {{ .Config.Model }}
# {{ index .Help "base-url" }}
base-url: {{ .Config.BaseURL }}
# {{ index .Help "api-key-env" }}
api-key-env: {{ .Config.APIKeyEnv }}
# {{ index .Help "buffer-size" }}
buffer-size: {{ .Config.BufferSize }}
# {{ index .Help "timeout" }}
timeout: {{ .Config.Timeout }}
# {{ index .Help "max-retries" }}
max-retries: {{ .Config.MaxRetries }}
# {{ index .Help "raw" }}
raw: false
# {{ index .Help "quiet" }}
quiet: false
# {{ index .Help "verbose" }}
verbose: false
# {{ index .Help "no-cache" }}
no-cache: false
# {{ index .Help "status-text" }}
status-text: {{ .Config.StatusText }}
# {{ index .Help "cache-path" }}
# cache-path: ~/.local/share/ai-cli
# {{ index .Help "log-path" }}
# log-path: ~/.local/state/ai-cli
`
