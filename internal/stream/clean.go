package stream

import (
	"strings"
	"unicode"
)

const (
	dataPrefix = "data: "

	// Sentinel marks the logical end of the stream.
	Sentinel = "[DONE]"
)

// Clean removes the SSE "data: " prefix and surrounding whitespace from a
// delivery. Invalid UTF-8 is replaced rather than rejected, and the prefix
// is optional since continuations arrive without one.
//
// It returns false when there is nothing to decode: the delivery was blank
// or it was the [Sentinel].
func Clean(delivery []byte) ([]byte, bool) {
	s := strings.ToValidUTF8(string(delivery), string(unicode.ReplacementChar))
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	s = strings.TrimPrefix(s, dataPrefix)
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if s == "" || s == Sentinel {
		return nil, false
	}
	return []byte(s), true
}
