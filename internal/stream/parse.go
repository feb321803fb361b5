package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jwekke/ai-cli/internal/diag"
	"github.com/jwekke/ai-cli/internal/proto"
)

// Parser reassembles chunks one delivery at a time. It is owned by a single
// goroutine for the lifetime of one stream.
type Parser struct {
	state    ParseState
	pending  []byte
	text     strings.Builder
	out      *Output
	sink     diag.Sink
	finished bool
}

// NewParser returns a parser forwarding tokens to out and diagnostics to
// sink. A nil sink discards diagnostics.
func NewParser(out *Output, sink diag.Sink) *Parser {
	if sink == nil {
		sink = diag.Discard
	}
	return &Parser{
		out:  out,
		sink: sink,
	}
}

// State returns the current parse state.
func (p *Parser) State() ParseState { return p.state }

// Pending returns a copy of the bytes waiting to be stitched.
func (p *Parser) Pending() []byte { return slices.Clone(p.pending) }

// Text returns every token forwarded so far, in order.
func (p *Parser) Text() string { return p.text.String() }

// Finished reports whether a chunk carried a finish reason.
func (p *Parser) Finished() bool { return p.finished }

// Feed handles one raw delivery and reports whether the stream finished.
// Errors are fatal: the stream must not be fed again.
func (p *Parser) Feed(ctx context.Context, delivery []byte) (bool, error) {
	if p.finished {
		return true, nil
	}
	p.sink.RecordRaw(delivery)

	fragment, ok := Clean(delivery)
	if !ok {
		return false, nil
	}

	candidate := append(slices.Clip(p.pending), fragment...)
	chunk, err := Decode(candidate)
	if err == nil {
		p.pending = p.pending[:0]
		if err := p.dispatch(ctx, chunk); err != nil {
			return false, err
		}
		p.state = Steady
		return p.finished, nil
	}

	switch {
	case p.state == Initial && !bytes.HasPrefix(fragment, []byte("{")):
		p.anomaly(fragment, "unrecoverable leading fragment", err)
	case p.state == Stitching && bytes.IndexByte(p.pending, '}') >= 0:
		return false, &StitchError{
			Pending:  slices.Clone(p.pending),
			Fragment: fragment,
		}
	case (p.state == Stitching || p.state == Steady) && !bytes.HasSuffix(fragment, []byte("}")):
		p.pending = append(p.pending, fragment...)
		p.state = Stitching
		return false, nil
	default:
		p.anomaly(fragment, "undecodable fragment", err)
	}
	p.state = Steady
	return false, nil
}

// dispatch forwards the content of the first choice and marks the parser
// finished when the choice carries a finish reason.
func (p *Parser) dispatch(ctx context.Context, chunk proto.Chunk) error {
	choice := chunk.Choices[0]
	if content := choice.Delta.Content; content != nil {
		if err := p.out.send(ctx, *content); err != nil {
			return err
		}
		p.text.WriteString(*content)
	}
	p.finished = choice.FinishReason != nil
	return nil
}

func (p *Parser) anomaly(fragment []byte, reason string, err error) {
	p.sink.RecordError((&FramingError{
		State:    p.state,
		Fragment: fragment,
		Reason:   reason,
		Err:      err,
	}).Error())
}

// Parse reads deliveries from src until the stream is exhausted, a chunk
// carries a finish reason, ctx is done, or a fatal error occurs. Tokens are
// sent on out, which is closed on return.
//
// The accumulated text is returned in every case, alongside the error that
// stopped the stream: a [*TransportError], a [*StitchError],
// [ErrChannelClosed] or the context error.
func Parse(ctx context.Context, src Source, out *Output, sink diag.Sink) (string, error) {
	defer out.finish()

	p := NewParser(out, sink)
	for {
		if err := ctx.Err(); err != nil {
			return p.Text(), err //nolint:wrapcheck
		}

		delivery, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			if len(p.pending) > 0 {
				p.sink.RecordError(fmt.Sprintf(
					"stream ended while stitching %d bytes: %q",
					len(p.pending), p.pending,
				))
			}
			return p.Text(), nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return p.Text(), ctxErr //nolint:wrapcheck
			}
			err = &TransportError{Err: err}
			p.sink.RecordError(err.Error())
			return p.Text(), err
		}

		finished, err := p.Feed(ctx, delivery)
		if err != nil {
			if !isContextErr(err) {
				p.sink.RecordError(err.Error())
			}
			return p.Text(), err
		}
		if finished {
			return p.Text(), nil
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
