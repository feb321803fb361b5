package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
)

// DefaultReadSize is the delivery size used by [FromReader] and [FromLines]
// when none is given.
const DefaultReadSize = 4096

// Source yields raw deliveries. Next returns io.EOF once the stream is
// exhausted. A delivery may be empty.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to a [Source].
type SourceFunc func(ctx context.Context) ([]byte, error)

// Next implements Source.
func (f SourceFunc) Next(ctx context.Context) ([]byte, error) { return f(ctx) }

// FromReader returns a [Source] yielding the result of each Read on r as one
// delivery, so deliveries follow whatever boundaries the transport produced.
func FromReader(r io.Reader, size int) Source {
	if size <= 0 {
		size = DefaultReadSize
	}
	return &readerSource{r: r, buf: make([]byte, size)}
}

type readerSource struct {
	r   io.Reader
	buf []byte
	err error
}

func (s *readerSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if s.err != nil {
		return nil, s.err
	}
	n, err := s.r.Read(s.buf)
	if err != nil {
		s.err = err
		if n == 0 {
			return nil, err //nolint:wrapcheck
		}
	}
	return slices.Clone(s.buf[:n]), nil
}

// FromLines returns a [Source] yielding one delivery per line of r. Lines
// longer than size are split into several deliveries, which the parser
// stitches back together.
func FromLines(r io.Reader, size int) Source {
	if size <= 0 {
		size = DefaultReadSize
	}
	return &lineSource{r: bufio.NewReaderSize(r, size)}
}

type lineSource struct {
	r   *bufio.Reader
	err error
}

func (s *lineSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if s.err != nil {
		return nil, s.err
	}
	line, err := s.r.ReadSlice('\n')
	switch {
	case err == nil, errors.Is(err, bufio.ErrBufferFull):
		return bytes.Clone(line), nil
	case len(line) > 0:
		s.err = err
		return bytes.Clone(line), nil
	default:
		return nil, err //nolint:wrapcheck
	}
}

// FromChan returns a [Source] receiving deliveries from c. A closed channel
// ends the stream.
func FromChan(c <-chan []byte) Source {
	return SourceFunc(func(ctx context.Context) ([]byte, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err() //nolint:wrapcheck
		case b, ok := <-c:
			if !ok {
				return nil, io.EOF
			}
			return b, nil
		}
	})
}

// SliceSource yields a fixed list of deliveries.
type SliceSource struct {
	deliveries [][]byte
	read       int
}

// FromSlice returns a [SliceSource] over the given deliveries.
func FromSlice(deliveries ...[]byte) *SliceSource {
	return &SliceSource{deliveries: deliveries}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if s.read >= len(s.deliveries) {
		return nil, io.EOF
	}
	b := s.deliveries[s.read]
	s.read++
	return b, nil
}

// Read returns how many deliveries were handed out.
func (s *SliceSource) Read() int { return s.read }
