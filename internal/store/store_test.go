package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravanos/chatd/internal/domain"
	"github.com/ravanos/chatd/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent", "json")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB/Migration tests ---

func TestOpenInMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrationsApplied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchemaTablesExist(t *testing.T) {
	db := testDB(t)

	for _, table := range []string{"sessions", "messages"} {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

// --- SessionStore contract tests, run against both implementations ---

func eachStore(t *testing.T, fn func(t *testing.T, st SessionStore)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLiteSessionStore(testDB(t)))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemorySessionStore())
	})
}

func TestCreateAndGetSession(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		sess, err := st.CreateSession(ctx, "alice", "Inventory Chat")
		require.NoError(t, err)
		require.NotEmpty(t, sess.ID)
		assert.Equal(t, "alice", sess.OwnerID)
		assert.Equal(t, "Inventory Chat", sess.Title)
		assert.False(t, sess.CreatedAt.IsZero())

		got, err := st.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, "alice", got.OwnerID)
		assert.Equal(t, "Inventory Chat", got.Title)
	})
}

func TestCreateSessionDefaults(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		sess, err := st.CreateSession(context.Background(), "", "")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultOwnerID, sess.OwnerID)
		assert.Equal(t, domain.DefaultTitle, sess.Title)
	})
}

func TestGetSessionNotFound(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		_, err := st.GetSession(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestAppendMessageAssignsIncreasingIDs(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		sess, err := st.CreateSession(ctx, "alice", "")
		require.NoError(t, err)

		var prev int64
		for i := 0; i < 5; i++ {
			msg, err := st.AppendMessage(ctx, sess.ID, "user", fmt.Sprintf("message %d", i), nil)
			require.NoError(t, err)
			assert.Greater(t, msg.ID, prev)
			prev = msg.ID
		}
	})
}

func TestAppendMessageUnknownSession(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		_, err := st.AppendMessage(context.Background(), "missing", "user", "hi", nil)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestAppendMessageBumpsUpdatedAt(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		sess, err := st.CreateSession(ctx, "alice", "")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		_, err = st.AppendMessage(ctx, sess.ID, "user", "hi", nil)
		require.NoError(t, err)

		got, err := st.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.After(sess.UpdatedAt))
	})
}

func TestMessagesChronologicalOrder(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		sess, err := st.CreateSession(ctx, "alice", "")
		require.NoError(t, err)

		for i := 0; i < 4; i++ {
			_, err := st.AppendMessage(ctx, sess.ID, "user", fmt.Sprintf("message %d", i), nil)
			require.NoError(t, err)
		}

		msgs, err := st.Messages(ctx, sess.ID, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 4)
		for i, m := range msgs {
			assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
		}
	})
}

func TestMessagesKeepEarliestPrefix(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		sess, err := st.CreateSession(ctx, "alice", "")
		require.NoError(t, err)

		for i := 0; i < 6; i++ {
			_, err := st.AppendMessage(ctx, sess.ID, "user", fmt.Sprintf("message %d", i), nil)
			require.NoError(t, err)
		}

		msgs, err := st.Messages(ctx, sess.ID, 3)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "message 0", msgs[0].Content)
		assert.Equal(t, "message 2", msgs[2].Content)
	})
}

func TestMessagesEmptySession(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		sess, err := st.CreateSession(ctx, "alice", "")
		require.NoError(t, err)

		msgs, err := st.Messages(ctx, sess.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})
}

func TestMessageMetadataRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		sess, err := st.CreateSession(ctx, "alice", "")
		require.NoError(t, err)

		_, err = st.AppendMessage(ctx, sess.ID, "tool", `{"ok":true}`, map[string]any{
			"toolCallId": "call_1",
			"toolName":   "get_doctypes",
		})
		require.NoError(t, err)

		msgs, err := st.Messages(ctx, sess.ID, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "call_1", msgs[0].Metadata["toolCallId"])
		assert.Equal(t, "get_doctypes", msgs[0].Metadata["toolName"])
	})
}

func TestListSessionsRecencyOrder(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()

		first, err := st.CreateSession(ctx, "alice", "first")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		second, err := st.CreateSession(ctx, "alice", "second")
		require.NoError(t, err)

		// Appending to the older session moves it to the front.
		time.Sleep(5 * time.Millisecond)
		_, err = st.AppendMessage(ctx, first.ID, "user", "bump", nil)
		require.NoError(t, err)

		sessions, err := st.ListSessions(ctx, "alice", 10)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, first.ID, sessions[0].ID)
		assert.Equal(t, second.ID, sessions[1].ID)

		assert.Equal(t, 1, sessions[0].MessageCount)
		require.NotNil(t, sessions[0].LastMessageTime)
		assert.Equal(t, 0, sessions[1].MessageCount)
		assert.Nil(t, sessions[1].LastMessageTime)
	})
}

func TestListSessionsScopedToOwner(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		_, err := st.CreateSession(ctx, "alice", "hers")
		require.NoError(t, err)
		_, err = st.CreateSession(ctx, "bob", "his")
		require.NoError(t, err)

		sessions, err := st.ListSessions(ctx, "alice", 10)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "hers", sessions[0].Title)
	})
}

func TestListSessionsLimit(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			_, err := st.CreateSession(ctx, "alice", fmt.Sprintf("chat %d", i))
			require.NoError(t, err)
			time.Sleep(2 * time.Millisecond)
		}

		sessions, err := st.ListSessions(ctx, "alice", 3)
		require.NoError(t, err)
		assert.Len(t, sessions, 3)
	})
}

func TestUpdateTitle(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		sess, err := st.CreateSession(ctx, "alice", "")
		require.NoError(t, err)

		affected, err := st.UpdateTitle(ctx, sess.ID, "Renamed")
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		got, err := st.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
	})
}

func TestUpdateTitleAbsentSession(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		affected, err := st.UpdateTitle(context.Background(), "missing", "Renamed")
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestDeleteSessionRemovesMessages(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		sess, err := st.CreateSession(ctx, "alice", "")
		require.NoError(t, err)
		_, err = st.AppendMessage(ctx, sess.ID, "user", "hello", nil)
		require.NoError(t, err)

		require.NoError(t, st.DeleteSession(ctx, sess.ID))

		_, err = st.GetSession(ctx, sess.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)

		msgs, err := st.Messages(ctx, sess.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})
}

func TestDeleteSessionIdempotent(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		assert.NoError(t, st.DeleteSession(context.Background(), "missing"))
	})
}

func TestSearchMessages(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		ctx := context.Background()
		mine, err := st.CreateSession(ctx, "alice", "")
		require.NoError(t, err)
		theirs, err := st.CreateSession(ctx, "bob", "")
		require.NoError(t, err)

		_, err = st.AppendMessage(ctx, mine.ID, "user", "Show me the Invoice list", nil)
		require.NoError(t, err)
		_, err = st.AppendMessage(ctx, mine.ID, "assistant", "Here are your invoices.", nil)
		require.NoError(t, err)
		_, err = st.AppendMessage(ctx, theirs.ID, "user", "invoice for bob", nil)
		require.NoError(t, err)

		// Case-insensitive, owner-scoped, newest first.
		results, err := st.SearchMessages(ctx, "invoice", "alice", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Here are your invoices.", results[0].Content)
		assert.Equal(t, "Show me the Invoice list", results[1].Content)
	})
}

func TestSearchMessagesNoMatch(t *testing.T) {
	eachStore(t, func(t *testing.T, st SessionStore) {
		results, err := st.SearchMessages(context.Background(), "nothing", "alice", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
