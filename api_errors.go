package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/jwekke/ai-cli/internal/stream"
	"github.com/openai/openai-go"
)

func handleRequestError(err error, model string) error {
	ae := &openai.Error{}
	if errors.As(err, &ae) {
		return handleAPIError(err, ae.StatusCode, model)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return cliError{err, "Timed out connecting to the Mistral API."}
	}
	if errors.Is(err, context.Canceled) {
		return cliError{err, "Request canceled."}
	}
	return cliError{err, "There was a problem with the Mistral API request."}
}

// handleAPIError explains an HTTP error status of the API. err is kept whole
// so callers can still match what it wraps.
func handleAPIError(err error, status int, model string) error {
	switch {
	case status == http.StatusNotFound:
		return cliError{err: err, reason: fmt.Sprintf(
			"Missing model '%s'. Run %s to pick another one.",
			model,
			stderrStyles().InlineCode.Render("ai-cli config"),
		)}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return cliError{err: err, reason: "Mistral API request error."}
	case status == http.StatusUnauthorized:
		return cliError{err: err, reason: "Invalid Mistral API key."}
	case status == http.StatusTooManyRequests:
		return cliError{err: err, reason: "You’ve hit your Mistral API rate limit."}
	case status >= http.StatusInternalServerError:
		return cliError{err: err, reason: "Mistral API server error."}
	default:
		return cliError{err: err, reason: "Unknown API error."}
	}
}

// handleStreamError explains why reading the response stopped early.
func handleStreamError(err error, partial bool) error {
	var reason string
	var terr *stream.TransportError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "Timed out waiting for the response"
	case errors.Is(err, context.Canceled):
		reason = "Response canceled"
	case errors.Is(err, stream.ErrStitchInvariant):
		reason = "The response stream could not be reassembled"
	case errors.Is(err, stream.ErrChannelClosed):
		reason = "Could not write the response"
	case errors.As(err, &terr):
		reason = "Lost the connection to the Mistral API"
	default:
		reason = "There was a problem reading the response"
	}
	if partial {
		reason = xstrings.EnglishJoin([]string{reason, "the response above is incomplete"}, true)
	}
	return cliError{err, reason + "."}
}
