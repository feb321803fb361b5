// Package mistral implements [stream.Client] for the Mistral API.
package mistral

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/jwekke/ai-cli/internal/proto"
	"github.com/jwekke/ai-cli/internal/stream"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Defaults.
const (
	DefaultBaseURL   = "https://api.mistral.ai/v1"
	DefaultModel     = "mistral-tiny"
	DefaultAPIKeyEnv = "MISTRAL_API_KEY"
)

var _ stream.Client = &Client{}

// Client is the mistral client. The API is OpenAI compatible, so requests
// go through the openai client while the response body is left to
// [stream.Parse].
type Client struct {
	api *openai.Client
}

// Config represents the configuration for the Mistral API client.
type Config struct {
	AuthToken  string
	BaseURL    string
	HTTPClient interface {
		Do(*http.Request) (*http.Response, error)
	}
	MaxRetries int
}

// DefaultConfig returns the default configuration for the Mistral API client.
func DefaultConfig(authToken string) Config {
	return Config{
		AuthToken:  authToken,
		BaseURL:    DefaultBaseURL,
		MaxRetries: 2, //nolint:mnd
	}
}

// New creates a new [Client] with the given [Config].
func New(config Config) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts := []option.RequestOption{
		option.WithAPIKey(config.AuthToken),
		option.WithBaseURL(strings.TrimSuffix(baseURL, "/") + "/"),
		option.WithMaxRetries(max(config.MaxRetries, 0)),
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}
	client := openai.NewClient(opts...)
	return &Client{
		api: &client,
	}
}

// Stream implements stream.Client.
func (c *Client) Stream(ctx context.Context, request proto.Request) (io.ReadCloser, error) {
	body := openai.ChatCompletionNewParams{
		Model:    request.Model,
		Messages: fromProtoMessages(request.Messages),
	}

	var resp *http.Response
	if err := c.api.Post(
		ctx,
		"chat/completions",
		body,
		&resp,
		option.WithJSONSet("stream", true),
		option.WithHeader("Accept", "text/event-stream"),
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return resp.Body, nil
}

type modelList struct {
	Data []proto.Model `json:"data"`
}

// Models returns the models able to do chat completions.
func (c *Client) Models(ctx context.Context) ([]proto.Model, error) {
	var list modelList
	if err := c.api.Get(ctx, "models", nil, &list); err != nil {
		return nil, err //nolint:wrapcheck
	}
	models := make([]proto.Model, 0, len(list.Data))
	for _, m := range list.Data {
		if m.Capabilities.CompletionChat {
			models = append(models, m)
		}
	}
	return models, nil
}
