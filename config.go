package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v9"
	"github.com/charmbracelet/x/exp/ordered"
	"github.com/jwekke/ai-cli/internal/mistral"
	"github.com/jwekke/ai-cli/internal/stream"
	"gopkg.in/yaml.v3"
)

const (
	appName        = "ai-cli"
	envPrefix      = "MISTRAL_"
	maxBufferSize  = 10000
	modelKey       = "default-model"
	defaultStatus  = "Connecting to Mistral API"
	settingsFile   = "ai-cli.yml"
	databaseFile   = "ai-cli.db"
	configFileMode = 0o600
)

var help = map[string]string{
	"model":       "Default model (mistral-tiny, mistral-small-latest...).",
	"base-url":    "Base URL of the Mistral API.",
	"api-key-env": "Environment variable holding the API key.",
	"buffer-size": "Number of tokens buffered between the stream parser and the terminal.",
	"timeout":     "Give up on a response after this long (0 waits forever).",
	"max-retries": "Maximum number of times to retry API calls.",
	"raw":         "Render output as raw text when connected to a TTY.",
	"quiet":       "Quiet mode (hide the spinner while connecting).",
	"verbose":     "Log debug information to stderr.",
	"no-cache":    "Disables caching of the prompt/response.",
	"cache-path":  "Where conversations are stored.",
	"log-path":    "Where the stream and error logs are written.",
	"status-text": "Text to show while connecting.",
	"copy":        "Copy the response to the clipboard.",
	"settings":    "Open settings in your $EDITOR.",
	"list":        "Lists saved conversations.",
	"delete":      "Deletes a saved conversation with the given title or ID.",
	"show":        "Show a saved conversation with the given title or ID.",
	"show-last":   "Show the last saved conversation.",
}

// Config holds the main configuration and is mapped to the YAML settings file.
type Config struct {
	Model      string        `yaml:"default-model" env:"MODEL"`
	BaseURL    string        `yaml:"base-url" env:"BASE_URL"`
	APIKey     string        `yaml:"api-key" env:"API_KEY"`
	APIKeyEnv  string        `yaml:"api-key-env" env:"API_KEY_ENV"`
	BufferSize int           `yaml:"buffer-size" env:"BUFFER_SIZE"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries int           `yaml:"max-retries" env:"MAX_RETRIES"`
	Raw        bool          `yaml:"raw" env:"RAW"`
	Quiet      bool          `yaml:"quiet" env:"QUIET"`
	Verbose    bool          `yaml:"verbose" env:"VERBOSE"`
	NoCache    bool          `yaml:"no-cache" env:"NO_CACHE"`
	CachePath  string        `yaml:"cache-path" env:"CACHE_PATH"`
	LogPath    string        `yaml:"log-path" env:"LOG_PATH"`
	StatusText string        `yaml:"status-text" env:"STATUS_TEXT"`

	SettingsPath string
	Settings     bool
	Copy         bool
	List         bool
	Show         string
	ShowLast     bool
	Delete       string
}

func defaultConfig() Config {
	return Config{
		Model:      mistral.DefaultModel,
		BaseURL:    mistral.DefaultBaseURL,
		APIKeyEnv:  mistral.DefaultAPIKeyEnv,
		BufferSize: stream.DefaultOutputSize,
		MaxRetries: 5, //nolint:mnd
		StatusText: defaultStatus,
	}
}

// apiKey returns the configured key, falling back to the environment
// variable named by api-key-env.
func (c Config) apiKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv(c.APIKeyEnv)
}

func (c Config) dbPath() string {
	return filepath.Join(c.CachePath, databaseFile)
}

// normalize fills in zero values and clamps the ones that have bounds.
func (c *Config) normalize() {
	def := defaultConfig()
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = def.APIKeyEnv
	}
	if c.BufferSize == 0 {
		c.BufferSize = def.BufferSize
	}
	if c.StatusText == "" {
		c.StatusText = def.StatusText
	}
	c.BufferSize = ordered.Clamp(c.BufferSize, 1, maxBufferSize)
	c.MaxRetries = max(c.MaxRetries, 0)
	c.Timeout = max(c.Timeout, 0)
}

func ensureConfig() (Config, error) {
	sp, err := xdg.ConfigFile(filepath.Join(appName, settingsFile))
	if err != nil {
		return defaultConfig(), cliError{err, "Could not find settings path."}
	}
	return loadConfig(sp)
}

func loadConfig(sp string) (Config, error) {
	var c Config
	c.SettingsPath = sp

	dir := filepath.Dir(sp)
	if dirErr := os.MkdirAll(dir, 0o700); dirErr != nil { //nolint:mnd
		return c, cliError{dirErr, "Could not create cache directory."}
	}

	if dirErr := writeConfigFile(sp); dirErr != nil {
		return c, dirErr
	}
	content, err := os.ReadFile(sp)
	if err != nil {
		return c, cliError{err, "Could not read settings file."}
	}
	if err := yaml.Unmarshal(content, &c); err != nil {
		return c, cliError{err, "Could not parse settings file."}
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: envPrefix}); err != nil {
		return c, cliError{err, "Could not parse environment into settings file."}
	}

	c.normalize()

	if c.CachePath == "" {
		c.CachePath = filepath.Join(xdg.DataHome, appName)
	}
	if err := os.MkdirAll(c.CachePath, 0o700); err != nil { //nolint:mnd
		return c, cliError{err, "Could not create cache directory."}
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(xdg.StateHome, appName)
	}

	return c, nil
}

func writeConfigFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createConfigFile(path)
	} else if err != nil {
		return cliError{err, "Could not stat path."}
	}
	return nil
}

func createConfigFile(path string) error {
	tmpl := template.Must(template.New("config").Parse(configTemplate))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, configFileMode)
	if err != nil {
		return cliError{err, "Could not create configuration file."}
	}
	defer func() { _ = f.Close() }()

	m := struct {
		Config Config
		Help   map[string]string
	}{
		Config: defaultConfig(),
		Help:   help,
	}
	if err := tmpl.Execute(f, m); err != nil {
		return cliError{err, "Could not render template."}
	}
	return nil
}

// saveDefaultModel rewrites the default-model value of the settings file,
// leaving the rest of the document and its comments alone.
func saveDefaultModel(path, model string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read settings file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("could not parse settings file: %w", err)
	}
	if len(doc.Content) == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("could not update settings file: %s is not a mapping", path)
	}

	found := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == modelKey {
			root.Content[i+1].SetString(model)
			found = true
		}
	}
	if !found {
		key := &yaml.Node{}
		key.SetString(modelKey)
		value := &yaml.Node{}
		value.SetString(model)
		root.Content = append([]*yaml.Node{key, value}, root.Content...)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2) //nolint:mnd
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("could not encode settings file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not encode settings file: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), configFileMode); err != nil {
		return fmt.Errorf("could not write settings file: %w", err)
	}
	return nil
}
