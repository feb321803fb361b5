package mistral

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwekke/ai-cli/internal/diag"
	"github.com/jwekke/ai-cli/internal/proto"
	"github.com/jwekke/ai-cli/internal/stream"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"
)

func sse(tokens ...string) string {
	var sb strings.Builder
	for i, tok := range tokens {
		finish := "null"
		if i == len(tokens)-1 {
			finish = `"stop"`
		}
		content, _ := json.Marshal(tok)
		fmt.Fprintf(
			&sb,
			"data: {\"id\":\"8b1d\",\"object\":\"chat.completion.chunk\",\"created\":1765374050,\"model\":\"mistral-tiny\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%s},\"finish_reason\":%s}]}\n\n",
			content, finish,
		)
	}
	sb.WriteString("data: [DONE]\n\n")
	return sb.String()
}

func newTestClient(tb testing.TB, handler http.HandlerFunc) *Client {
	tb.Helper()
	srv := httptest.NewServer(handler)
	tb.Cleanup(srv.Close)
	return New(Config{
		AuthToken: "test-key",
		BaseURL:   srv.URL + "/v1",
	})
}

func TestStream(t *testing.T) {
	var (
		method, path, auth string
		body               map[string]any
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path, auth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sse("Hello", ", ", "world"))
	})

	rc, err := client.Stream(t.Context(), proto.Request{
		Model: DefaultModel,
		Messages: []proto.Message{
			{Role: proto.RoleSystem, Content: "be brief"},
			{Role: proto.RoleUser, Content: "say hello"},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "/v1/chat/completions", path)
	require.Equal(t, "Bearer test-key", auth)
	require.Equal(t, DefaultModel, body["model"])
	require.Equal(t, true, body["stream"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "say hello", messages[1].(map[string]any)["content"])

	out := stream.NewOutput(stream.DefaultOutputSize)
	var tokens []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for tok := range out.C {
			tokens = append(tokens, tok)
		}
	}()
	sink := &diag.Memory{}
	text, err := stream.Parse(t.Context(), stream.FromLines(rc, stream.DefaultReadSize), out, sink)
	<-done
	require.NoError(t, err)
	require.Equal(t, "Hello, world", text)
	require.Equal(t, []string{"Hello", ", ", "world"}, tokens)
	require.Empty(t, sink.Errors())
}

func TestStreamErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		status int
		body   string
	}{
		"unauthorized": {
			status: http.StatusUnauthorized,
			body:   `{"message":"Unauthorized","request_id":"c0ffee"}`,
		},
		"unknown model": {
			status: http.StatusNotFound,
			body:   `{"object":"error","message":"Invalid model: mistral-huge","type":"invalid_model","param":null,"code":"1500"}`,
		},
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			rc, err := client.Stream(t.Context(), proto.Request{Model: "mistral-huge"})
			require.Error(t, err)
			require.Nil(t, rc)

			var apiErr *openai.Error
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tc.status, apiErr.StatusCode)
		})
	}
}

func TestModels(t *testing.T) {
	var method, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"object": "list",
			"data": [
				{"id": "mistral-tiny", "object": "model", "description": "Small and fast", "capabilities": {"completion_chat": true}},
				{"id": "mistral-embed", "object": "model", "description": "Embeddings", "capabilities": {"completion_chat": false}},
				{"id": "mistral-large-latest", "object": "model", "capabilities": {"completion_chat": true}}
			]
		}`)
	})

	models, err := client.Models(t.Context())
	require.NoError(t, err)
	require.Equal(t, http.MethodGet, method)
	require.Equal(t, "/v1/models", path)
	require.Len(t, models, 2)
	require.Equal(t, "mistral-tiny", models[0].ID)
	require.Equal(t, "Small and fast", models[0].Description)
	require.Equal(t, "mistral-large-latest", models[1].ID)
}

func TestFromProtoMessages(t *testing.T) {
	messages := fromProtoMessages([]proto.Message{
		{Role: proto.RoleSystem, Content: "sys"},
		{Role: proto.RoleUser, Content: "user"},
		{Role: proto.RoleAssistant, Content: "assistant"},
	})
	require.Len(t, messages, 3)
	require.NotNil(t, messages[0].OfSystem)
	require.NotNil(t, messages[1].OfUser)
	require.NotNil(t, messages[2].OfAssistant)
}
