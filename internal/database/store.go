package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for transcript archive operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveTranscript archives a finished conversation and its messages in a
	// single transaction.
	SaveTranscript(ctx context.Context, transcript *Transcript, messages []TranscriptMessage) error

	// GetTranscript retrieves an archived conversation and its messages by
	// conversation ID. Returns nil, nil, nil if not found.
	GetTranscript(ctx context.Context, conversationID string) (*Transcript, []TranscriptMessage, error)

	// DeleteTranscriptsBefore removes transcripts that ended before cutoff.
	// Returns the number of transcripts deleted.
	DeleteTranscriptsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveTranscript archives a finished conversation and its messages in a
// single transaction.
func (s *sqlxStore) SaveTranscript(ctx context.Context, transcript *Transcript, messages []TranscriptMessage) error {
	if transcript == nil {
		return fmt.Errorf("cannot save nil transcript")
	}
	if transcript.ConversationID == "" {
		return fmt.Errorf("transcript must have a conversation_id")
	}
	if transcript.OwnerID == "" || transcript.ChannelID == "" {
		return fmt.Errorf("transcript must have owner_id and channel_id")
	}

	now := time.Now().UTC()
	transcript.CreatedAt = now
	if transcript.EndedAt.IsZero() {
		transcript.EndedAt = now
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving transcript",
			"conversation_id", transcript.ConversationID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO transcripts (conversation_id, owner_id, channel_id, model, system_prompt, started_at, ended_at, created_at)
        VALUES (:conversation_id, :owner_id, :channel_id, :model, :system_prompt, :started_at, :ended_at, :created_at);
    `

	result, err := tx.NamedExecContext(ctx, query, transcript)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving transcript",
			"conversation_id", transcript.ConversationID, "error", err)
		return fmt.Errorf("failed to save transcript %s: %w", transcript.ConversationID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transcript id: %w", err)
	}
	//nolint:gosec // integer overflow conversion is acceptable here
	transcript.ID = uint(id)

	msgQuery := `
        INSERT INTO transcript_messages (transcript_id, position, role, content, image_urls, created_at)
        VALUES (:transcript_id, :position, :role, :content, :image_urls, :created_at);
    `
	for i := range messages {
		messages[i].TranscriptID = transcript.ID
		messages[i].Position = i
		messages[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, msgQuery, messages[i]); err != nil {
			s.logger.ErrorContext(ctx, "Error saving transcript message",
				"conversation_id", transcript.ConversationID, "position", i, "error", err)
			return fmt.Errorf("failed to save transcript message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction",
			"conversation_id", transcript.ConversationID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Transcript saved successfully",
		"conversation_id", transcript.ConversationID, "messages", len(messages))
	return nil
}

// GetTranscript retrieves an archived conversation and its messages.
func (s *sqlxStore) GetTranscript(ctx context.Context, conversationID string) (*Transcript, []TranscriptMessage, error) {
	if conversationID == "" {
		return nil, nil, fmt.Errorf("conversation_id cannot be empty")
	}

	var transcript Transcript
	query := `SELECT id, conversation_id, owner_id, channel_id, model, system_prompt, started_at, ended_at, created_at
	          FROM transcripts WHERE conversation_id = ?`

	err := s.db.GetContext(ctx, &transcript, query, conversationID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No transcript found", "conversation_id", conversationID)
		return nil, nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting transcript", "conversation_id", conversationID, "error", err)
		return nil, nil, fmt.Errorf("failed to get transcript %s: %w", conversationID, err)
	}

	var messages []TranscriptMessage
	msgQuery := `SELECT id, transcript_id, position, role, content, image_urls, created_at
	             FROM transcript_messages WHERE transcript_id = ? ORDER BY position ASC`

	if err := s.db.SelectContext(ctx, &messages, msgQuery, transcript.ID); err != nil {
		s.logger.ErrorContext(ctx, "Error getting transcript messages",
			"conversation_id", conversationID, "error", err)
		return nil, nil, fmt.Errorf("failed to get messages for transcript %s: %w", conversationID, err)
	}

	return &transcript, messages, nil
}

// DeleteTranscriptsBefore removes transcripts that ended before cutoff,
// together with their messages, in a single transaction.
func (s *sqlxStore) DeleteTranscriptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for transcript prune", "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	msgQuery := `DELETE FROM transcript_messages WHERE transcript_id IN (SELECT id FROM transcripts WHERE ended_at < ?)`
	if _, err := tx.ExecContext(ctx, msgQuery, cutoff.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old transcript messages", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete transcript messages before %s: %w", cutoff, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM transcripts WHERE ended_at < ?`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old transcripts", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete transcripts before %s: %w", cutoff, err)
	}
	count, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transcript prune", "error", err)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Deleted old transcripts", "cutoff", cutoff, "count", count)
	return count, nil
}

// RunSQLMaintenance executes VACUUM and ANALYZE on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		s.logger.WarnContext(ctx, "ANALYZE failed", "error", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed successfully")
	return nil
}
