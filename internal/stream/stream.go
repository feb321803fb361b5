// Package stream reassembles token streams from server-sent chat completion
// chunks.
//
// Deliveries read from the network carry no alignment guarantee: one may hold
// a whole "data: {...}" frame, half of one, or a continuation without the
// "data: " prefix. [Parse] stitches those fragments back into chunks,
// forwards each token on an [Output] and returns the accumulated text.
package stream

import (
	"context"
	"errors"
	"io"

	"github.com/jwekke/ai-cli/internal/proto"
)

// ErrNoContent happens when the client is returning no content.
var ErrNoContent = errors.New("no content")

// Client is a streaming completions client.
type Client interface {
	// Stream sends the request and returns the response body, which holds
	// the server-sent events.
	Stream(context.Context, proto.Request) (io.ReadCloser, error)
}
