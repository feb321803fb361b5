package main

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testDB(tb testing.TB) *convoDB {
	tb.Helper()
	db, err := openDB(":memory:")
	require.NoError(tb, err)
	tb.Cleanup(func() {
		require.NoError(tb, db.Close())
	})

	clock := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	db.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return db
}

func TestConvoDB(t *testing.T) {
	const testid = "df31ae23ab8b75b5643c2f846c570997edc71333"

	t.Run("list-empty", func(t *testing.T) {
		db := testDB(t)
		list, err := db.List()
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("save", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(testid, "message 1", "mistral-tiny"))

		convo, err := db.Find("df31")
		require.NoError(t, err)
		require.Equal(t, testid, convo.ID)
		require.Equal(t, "message 1", convo.Title)
		require.Equal(t, "mistral-tiny", convo.Model)
		require.Equal(t, 2024, convo.Updated().UTC().Year())

		list, err := db.List()
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("save no id", func(t *testing.T) {
		db := testDB(t)
		require.Error(t, db.Save("", "message 1", "mistral-tiny"))
	})

	t.Run("save no message", func(t *testing.T) {
		db := testDB(t)
		require.Error(t, db.Save(newConversationID(), "", "mistral-tiny"))
	})

	t.Run("update", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(testid, "message 1", "mistral-tiny"))
		first, err := db.Find(testid)
		require.NoError(t, err)
		require.NoError(t, db.Save(testid, "message 2", "mistral-small-latest"))

		convo, err := db.Find("df31")
		require.NoError(t, err)
		require.Equal(t, testid, convo.ID)
		require.Equal(t, "message 2", convo.Title)
		require.Equal(t, "mistral-small-latest", convo.Model)
		require.True(t, convo.Updated().After(first.Updated()))

		list, err := db.List()
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("find head single", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(testid, "message 2", "mistral-tiny"))

		head, err := db.FindHEAD()
		require.NoError(t, err)
		require.Equal(t, testid, head.ID)
		require.Equal(t, "message 2", head.Title)
	})

	t.Run("find head empty", func(t *testing.T) {
		db := testDB(t)
		_, err := db.FindHEAD()
		require.Error(t, err)
	})

	t.Run("find head multiple", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(testid, "message 2", "mistral-tiny"))
		nextConvo := newConversationID()
		require.NoError(t, db.Save(nextConvo, "another message", "mistral-tiny"))

		head, err := db.FindHEAD()
		require.NoError(t, err)
		require.Equal(t, nextConvo, head.ID)
		require.Equal(t, "another message", head.Title)

		list, err := db.List()
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, nextConvo, list[0].ID)
		require.Equal(t, testid, list[1].ID)
	})

	t.Run("find by title", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(newConversationID(), "message 1", "mistral-tiny"))
		require.NoError(t, db.Save(testid, "message 2", "mistral-tiny"))

		convo, err := db.Find("message 2")
		require.NoError(t, err)
		require.Equal(t, testid, convo.ID)
		require.Equal(t, "message 2", convo.Title)
	})

	t.Run("find short title", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(testid, "df", "mistral-tiny"))

		convo, err := db.Find("df")
		require.NoError(t, err)
		require.Equal(t, testid, convo.ID)
	})

	t.Run("find match nothing", func(t *testing.T) {
		db := testDB(t)
		require.NoError(t, db.Save(testid, "message 1", "mistral-tiny"))
		_, err := db.Find("message")
		require.ErrorIs(t, err, errNoMatches)
	})

	t.Run("find match many", func(t *testing.T) {
		db := testDB(t)
		const testid2 = "df31ae23ab9b75b5641c2f846c571000edc71315"
		require.NoError(t, db.Save(testid, "message 1", "mistral-tiny"))
		require.NoError(t, db.Save(testid2, "message 2", "mistral-tiny"))
		_, err := db.Find("df31ae")
		require.ErrorIs(t, err, errManyMatches)
	})

	t.Run("delete", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(testid, "message 1", "mistral-tiny"))
		require.NoError(t, db.Delete(newConversationID()))

		list, err := db.List()
		require.NoError(t, err)
		require.NotEmpty(t, list)

		for _, item := range list {
			require.NoError(t, db.Delete(item.ID))
		}

		list, err = db.List()
		require.NoError(t, err)
		require.Empty(t, list)
	})
}

func TestNewConversationID(t *testing.T) {
	id := newConversationID()
	require.Len(t, id, 40)
	_, err := hex.DecodeString(id)
	require.NoError(t, err)
	require.NotEqual(t, id, newConversationID())
}
