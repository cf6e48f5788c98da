// Package database_test tests the transcript archive against an in-memory
// SQLite database with the real migrations applied.
package database_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdmsharpe/discord-grok/internal/database"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	db.SetMaxOpenConns(1)
	require.NoError(t, database.ApplyMigrations(db.DB, "test"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return database.NewStore(db, logger)
}

func sampleTranscript(conversationID string, endedAt time.Time) *database.Transcript {
	return &database.Transcript{
		ConversationID: conversationID,
		OwnerID:        "user-1",
		ChannelID:      "chan-1",
		Model:          "grok-3",
		SystemPrompt:   "be brief",
		StartedAt:      endedAt.Add(-time.Hour),
		EndedAt:        endedAt,
	}
}

func TestStorePing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestSaveTranscriptRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	messages := []database.TranscriptMessage{
		{Role: "user", Content: "what is this?"},
		{Role: "assistant", Content: "an answer"},
		{Role: "user", Content: "look at this"},
	}
	messages[2].ImageURLs.String = "https://cdn.example/a.png\nhttps://cdn.example/b.png"
	messages[2].ImageURLs.Valid = true

	transcript := sampleTranscript("conv-1", time.Now().UTC())
	require.NoError(t, store.SaveTranscript(ctx, transcript, messages))
	assert.NotZero(t, transcript.ID)

	got, gotMessages, err := store.GetTranscript(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "conv-1", got.ConversationID)
	assert.Equal(t, "user-1", got.OwnerID)
	assert.Equal(t, "chan-1", got.ChannelID)
	assert.Equal(t, "grok-3", got.Model)
	assert.Equal(t, "be brief", got.SystemPrompt)

	require.Len(t, gotMessages, 3)
	for i, msg := range gotMessages {
		assert.Equal(t, i, msg.Position)
	}
	assert.Equal(t, "user", gotMessages[0].Role)
	assert.Equal(t, "assistant", gotMessages[1].Role)
	assert.True(t, gotMessages[2].ImageURLs.Valid)
	assert.Contains(t, gotMessages[2].ImageURLs.String, "a.png")
}

func TestGetTranscriptNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	got, messages, err := store.GetTranscript(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, messages)
}

func TestSaveTranscriptValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveTranscript(ctx, nil, nil))
	assert.Error(t, store.SaveTranscript(ctx, &database.Transcript{OwnerID: "u", ChannelID: "c"}, nil))
	assert.Error(t, store.SaveTranscript(ctx, &database.Transcript{ConversationID: "x"}, nil))
}

func TestDeleteTranscriptsBefore(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	old := sampleTranscript("conv-old", time.Now().UTC().AddDate(0, 0, -120))
	recent := sampleTranscript("conv-recent", time.Now().UTC())

	require.NoError(t, store.SaveTranscript(ctx, old, []database.TranscriptMessage{{Role: "user", Content: "old"}}))
	require.NoError(t, store.SaveTranscript(ctx, recent, []database.TranscriptMessage{{Role: "user", Content: "new"}}))

	cutoff := time.Now().UTC().AddDate(0, 0, -90)
	count, err := store.DeleteTranscriptsBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, _, err := store.GetTranscript(ctx, "conv-old")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, messages, err := store.GetTranscript(ctx, "conv-recent")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, messages, 1)
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	assert.NoError(t, store.RunSQLMaintenance(context.Background()))
}
