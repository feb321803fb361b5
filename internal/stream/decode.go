package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jwekke/ai-cli/internal/proto"
)

var errNoChoices = errors.New("chunk has no choices")

// DecodeError is returned by [Decode] when the input is not a chunk.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode chunk: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode decodes b as a [proto.Chunk]. Unknown fields are ignored and missing
// optional fields stay nil. A chunk without choices is an error.
// b is never modified.
func Decode(b []byte) (proto.Chunk, error) {
	var chunk proto.Chunk
	if err := json.Unmarshal(b, &chunk); err != nil {
		return proto.Chunk{}, &DecodeError{Err: err}
	}
	if len(chunk.Choices) == 0 {
		return proto.Chunk{}, &DecodeError{Err: errNoChoices}
	}
	return chunk, nil
}
