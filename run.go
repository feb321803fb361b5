package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/jwekke/ai-cli/internal/cache"
	"github.com/jwekke/ai-cli/internal/diag"
	"github.com/jwekke/ai-cli/internal/mistral"
	"github.com/jwekke/ai-cli/internal/proto"
	"github.com/jwekke/ai-cli/internal/stream"
	"golang.org/x/sync/errgroup"
)

var errNoPrompt = errors.New("empty prompt")

func runPrompt(ctx context.Context, cfg *Config, prompt string) error {
	key, err := requireAPIKey(cfg)
	if err != nil {
		return err
	}

	client := mistral.New(mistral.Config{
		AuthToken:  key,
		BaseURL:    cfg.BaseURL,
		MaxRetries: cfg.MaxRetries,
	})

	sink := openSink(cfg)
	defer sink.Close() //nolint:errcheck

	return complete(ctx, cfg, client, sink, prompt, os.Stdout)
}

// complete streams the answer to prompt into w and saves the conversation.
func complete(
	ctx context.Context,
	cfg *Config,
	client stream.Client,
	sink diag.Sink,
	prompt string,
	w io.Writer,
) error {
	content, err := loadMsg(ctx, sanitizePrompt(prompt))
	if err != nil {
		return cliError{err, "Could not load the prompt."}
	}
	if content = strings.TrimSpace(content); content == "" {
		return cliError{errNoPrompt, "Nothing to ask the Mistral API."}
	}

	if !cfg.Quiet {
		fmt.Fprintf(os.Stderr, "Using model: %s\n", stderrStyles().InlineCode.Render(cfg.Model))
	}
	logger.Debug("sending request", "model", cfg.Model, "base-url", cfg.BaseURL, "timeout", cfg.Timeout)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	messages := []proto.Message{{Role: proto.RoleUser, Content: content}}
	body, err := connect(ctx, cfg, client, proto.Request{
		Model:      cfg.Model,
		Messages:   messages,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		sink.RecordError(fmt.Sprintf("request failed: %v", err))
		return handleRequestError(err, cfg.Model)
	}
	defer body.Close() //nolint:errcheck

	text, err := render(ctx, cfg, body, sink, w)
	if text != "" {
		messages = append(messages, proto.Message{Role: proto.RoleAssistant, Content: text})
		if serr := saveConversation(cfg, messages); serr != nil {
			logger.Warn("could not save conversation", "err", serr)
		}
		if cfg.Copy {
			if cerr := clipboard.WriteAll(text); cerr != nil {
				logger.Warn("could not copy to clipboard", "err", cerr)
			}
		}
	}
	if err != nil {
		return handleStreamError(err, text != "")
	}
	if text == "" {
		return cliError{stream.ErrNoContent, "The Mistral API sent an empty response."}
	}
	return nil
}

// render parses the response body while printing tokens as they arrive.
func render(ctx context.Context, cfg *Config, body io.Reader, sink diag.Sink, w io.Writer) (string, error) {
	out := stream.NewOutput(cfg.BufferSize)

	var text string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		text, err = stream.Parse(gctx, stream.FromLines(body, stream.DefaultReadSize), out, sink)
		return err //nolint:wrapcheck
	})
	g.Go(func() error {
		var written bool
		for tok := range out.C {
			if _, err := io.WriteString(w, tok); err != nil {
				out.Hangup()
				return fmt.Errorf("could not write response: %w", err)
			}
			written = true
		}
		if written && isOutputTTY() {
			_, _ = io.WriteString(w, "\n")
		}
		return nil
	})
	err := g.Wait()
	return text, err
}

func openSink(cfg *Config) interface {
	diag.Sink
	io.Closer
} {
	sink, err := diag.Open(cfg.LogPath, logger)
	if err != nil {
		logger.Warn("could not open diagnostics logs", "path", cfg.LogPath, "err", err)
		return nopSink{diag.Discard}
	}
	logger.Debug("writing diagnostics", "path", cfg.LogPath)
	return sink
}

type nopSink struct{ diag.Sink }

func (nopSink) Close() error { return nil }

func saveConversation(cfg *Config, messages []proto.Message) error {
	if cfg.NoCache {
		return nil
	}
	convos, err := cache.NewConversations(cfg.CachePath)
	if err != nil {
		return err //nolint:wrapcheck
	}
	db, err := openDB(cfg.dbPath())
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	id := newConversationID()
	if err := convos.Write(id, &messages); err != nil {
		return err //nolint:wrapcheck
	}
	if err := db.Save(id, conversationTitle(messages), cfg.Model); err != nil {
		_ = convos.Delete(id)
		return err
	}
	logger.Debug("saved conversation", "id", id[:convIDShort])
	return nil
}

const maxTitleLen = 72

// conversationTitle names a conversation after its last prompt.
func conversationTitle(messages []proto.Message) string {
	title := []rune(firstLine(proto.Conversation(messages).LastPrompt()))
	if len(title) > maxTitleLen {
		title = append(title[:maxTitleLen-1], '…')
	}
	return string(title)
}
