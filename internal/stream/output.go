package stream

import (
	"context"
	"sync"
)

// DefaultOutputSize is the capacity of the token channel used by the CLI.
const DefaultOutputSize = 100

// Output is a bounded, ordered token channel. The producer blocks while it
// is full. A consumer that stops reading must call [Output.Hangup] so the
// producer fails with [ErrChannelClosed] instead of blocking forever.
type Output struct {
	// C delivers tokens in arrival order. It is closed when [Parse] returns.
	C <-chan string

	c      chan string
	gone   chan struct{}
	hangup sync.Once
	closed sync.Once
}

// NewOutput creates an [Output] holding up to size pending tokens.
func NewOutput(size int) *Output {
	c := make(chan string, max(size, 0))
	return &Output{
		C:    c,
		c:    c,
		gone: make(chan struct{}),
	}
}

// Hangup tells the producer that no more tokens will be read.
func (o *Output) Hangup() {
	o.hangup.Do(func() { close(o.gone) })
}

func (o *Output) send(ctx context.Context, token string) error {
	select {
	case <-o.gone:
		return ErrChannelClosed
	default:
	}
	select {
	case o.c <- token:
		return nil
	case <-o.gone:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	}
}

func (o *Output) finish() {
	o.closed.Do(func() { close(o.c) })
}
