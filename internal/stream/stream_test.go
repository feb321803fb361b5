package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/jwekke/ai-cli/internal/diag"
)

// frame renders a minimal chunk frame carrying content.
func frame(content string) string {
	return chunkFrame(content, "null")
}

func chunkFrame(content, finishReason string) string {
	c, _ := json.Marshal(content)
	return fmt.Sprintf(
		`data: {"id":"ad4cfdaf3a3045bd807b8c37c6199077","object":"chat.completion.chunk","created":1765374050,"model":"mistral-tiny","choices":[{"index":0,"delta":{"content":%s},"finish_reason":%s}]}`,
		c, finishReason,
	)
}

const roleFrame = `data: {"id":"ad4cfdaf3a3045bd807b8c37c6199077","object":"chat.completion.chunk","created":1765374050,"model":"mistral-tiny","choices":[{"index":0,"delta":{"role":"assistant","content":""},"finish_reason":null}]}`

func deliveries(frames ...string) [][]byte {
	out := make([][]byte, 0, len(frames))
	for _, f := range frames {
		out = append(out, []byte(f))
	}
	return out
}

type result struct {
	text   string
	tokens []string
	err    error
	sink   *diag.Memory
}

// run parses src while draining the output on another goroutine.
func run(tb testing.TB, ctx context.Context, src Source, size int) result {
	tb.Helper()
	out := NewOutput(size)
	var res result
	done := make(chan struct{})
	go func() {
		defer close(done)
		for tok := range out.C {
			res.tokens = append(res.tokens, tok)
		}
	}()
	res.sink = &diag.Memory{}
	res.text, res.err = Parse(ctx, src, out, res.sink)
	<-done
	return res
}
