package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwekke/ai-cli/internal/proto"
	"github.com/stretchr/testify/require"
)

func TestConversations(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, saveConversation(cfg, []proto.Message{
		{Role: proto.RoleUser, Content: "first 4 natural numbers"},
		{Role: proto.RoleAssistant, Content: "1, 2, 3, 4"},
	}))

	db, err := openDB(cfg.dbPath())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	list, err := db.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	t.Run("list", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, listConversations(db, &out))
		require.Contains(t, out.String(), id[:convIDShort])
		require.Contains(t, out.String(), "first 4 natural numbers")
		require.Contains(t, out.String(), "(mistral-tiny)")
	})

	t.Run("show by title", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showConversation(db, cfg, "first 4 natural numbers", &out))
		require.Equal(t, "**User**: first 4 natural numbers\n\n**Assistant**: 1, 2, 3, 4\n\n", out.String())
	})

	t.Run("show by id", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showConversation(db, cfg, id[:convIDShort], &out))
		require.Contains(t, out.String(), "1, 2, 3, 4")
	})

	t.Run("show last", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showLastConversation(db, cfg, &out))
		require.Contains(t, out.String(), "first 4 natural numbers")
	})

	t.Run("show missing", func(t *testing.T) {
		err := showConversation(db, cfg, "nope nope", &bytes.Buffer{})
		require.ErrorIs(t, err, errNoMatches)
		var cerr cliError
		require.ErrorAs(t, err, &cerr)
		require.Contains(t, cerr.Reason(), "Could not find a conversation matching")
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, deleteConversation(db, cfg, id))

		list, err := db.List()
		require.NoError(t, err)
		require.Empty(t, list)
		require.NoFileExists(t, filepath.Join(cfg.CachePath, "conversations", id+".gob"))

		err = deleteConversation(db, cfg, id)
		require.ErrorIs(t, err, errNoMatches)
	})
}

func TestDeleteWithoutCachedBody(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t)
	id := newConversationID()
	require.NoError(t, db.Save(id, "orphan", "mistral-tiny"))

	require.NoError(t, deleteConversation(db, cfg, id[:convIDShort]))
	_, err := os.Stat(filepath.Join(cfg.CachePath, "conversations", id+".gob"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestListEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, listConversations(testDB(t), &out))
	require.Empty(t, out.String())
}

func TestShowLastEmpty(t *testing.T) {
	err := showLastConversation(testDB(t), testConfig(t), &bytes.Buffer{})
	require.ErrorIs(t, err, sql.ErrNoRows)
	var cerr cliError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "No conversations found.", cerr.Reason())
}

func TestFirstLine(t *testing.T) {
	require.Equal(t, "a", firstLine("  a \n b"))
	require.Empty(t, firstLine(""))
}
