package database

import (
	"database/sql"
	"time"
)

// Transcript is an archived conversation. A row is written when a
// conversation is stopped; live conversation state never touches the
// database.
type Transcript struct {
	ID             uint      `db:"id"`
	ConversationID string    `db:"conversation_id"`
	OwnerID        string    `db:"owner_id"`
	ChannelID      string    `db:"channel_id"`
	Model          string    `db:"model"`
	SystemPrompt   string    `db:"system_prompt"`
	StartedAt      time.Time `db:"started_at"`
	EndedAt        time.Time `db:"ended_at"`
	CreatedAt      time.Time `db:"created_at"`
}

// TranscriptMessage is one history entry of an archived conversation,
// ordered by Position.
type TranscriptMessage struct {
	ID           uint           `db:"id"`
	TranscriptID uint           `db:"transcript_id"`
	Position     int            `db:"position"`
	Role         string         `db:"role"`
	Content      string         `db:"content"`
	ImageURLs    sql.NullString `db:"image_urls"`
	CreatedAt    time.Time      `db:"created_at"`
}
