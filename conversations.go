package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	timeago "github.com/caarlos0/timea.go"
	"github.com/charmbracelet/glamour"
	"github.com/jwekke/ai-cli/internal/cache"
	"github.com/jwekke/ai-cli/internal/proto"
)

const showWordWrap = 80

func firstLine(s string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(first)
}

func findConversation(db *convoDB, in string) (*Conversation, error) {
	convo, err := db.Find(in)
	switch {
	case errors.Is(err, errNoMatches):
		return nil, cliError{err, fmt.Sprintf(
			"Could not find a conversation matching %s.",
			stderrStyles().InlineCode.Render(in),
		)}
	case errors.Is(err, errManyMatches):
		return nil, cliError{err, fmt.Sprintf(
			"More than one conversation matches %s, try a longer ID.",
			stderrStyles().InlineCode.Render(in),
		)}
	case err != nil:
		return nil, cliError{err, "Could not look up the conversation."}
	}
	return convo, nil
}

func listConversations(db *convoDB, w io.Writer) error {
	convos, err := db.List()
	if err != nil {
		return cliError{err, "Could not list saved conversations."}
	}
	if len(convos) == 0 {
		fmt.Fprintln(os.Stderr, "No conversations found.")
		return nil
	}

	s := stdoutStyles()
	for _, c := range convos {
		fmt.Fprintf(
			w,
			"%s %s %s %s\n",
			s.SHA1.Render(c.ID[:convIDShort]),
			s.Title.Render(c.Title),
			s.Comment.Render("("+c.Model+")"),
			s.Timeago.Render(timeago.Of(c.Updated())),
		)
	}
	return nil
}

func readConversation(cfg *Config, id string) (proto.Conversation, error) {
	convos, err := cache.NewConversations(cfg.CachePath)
	if err != nil {
		return nil, cliError{err, "Could not open the conversation cache."}
	}
	var messages []proto.Message
	if err := convos.Read(id, &messages); err != nil {
		return nil, cliError{err, "Could not read the conversation."}
	}
	return proto.Conversation(messages), nil
}

func showConversation(db *convoDB, cfg *Config, in string, w io.Writer) error {
	convo, err := findConversation(db, in)
	if err != nil {
		return err
	}
	return printConversation(cfg, convo, w)
}

func showLastConversation(db *convoDB, cfg *Config, w io.Writer) error {
	convo, err := db.FindHEAD()
	if errors.Is(err, sql.ErrNoRows) {
		return cliError{err, "No conversations found."}
	}
	if err != nil {
		return cliError{err, "Could not look up the conversation."}
	}
	return printConversation(cfg, convo, w)
}

func printConversation(cfg *Config, convo *Conversation, w io.Writer) error {
	messages, err := readConversation(cfg, convo.ID)
	if err != nil {
		return err
	}

	content := messages.String()
	if !cfg.Raw && isOutputTTY() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(showWordWrap),
		)
		if err != nil {
			return cliError{err, "Could not render the conversation."}
		}
		if content, err = r.Render(content); err != nil {
			return cliError{err, "Could not render the conversation."}
		}
	}
	_, err = io.WriteString(w, content)
	return err //nolint:wrapcheck
}

func deleteConversation(db *convoDB, cfg *Config, in string) error {
	convo, err := findConversation(db, in)
	if err != nil {
		return err
	}
	if err := db.Delete(convo.ID); err != nil {
		return cliError{err, "Could not delete the conversation."}
	}

	convos, err := cache.NewConversations(cfg.CachePath)
	if err != nil {
		return cliError{err, "Could not open the conversation cache."}
	}
	if err := convos.Delete(convo.ID); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cliError{err, "Could not delete the conversation."}
	}

	if !cfg.Quiet {
		fmt.Fprintf(
			os.Stderr,
			"Conversation deleted: %s\n",
			stderrStyles().SHA1.Render(convo.ID[:convIDShort]),
		)
	}
	return nil
}
