package tasks

import (
	"context"
	"fmt"
	"time"
)

// newTranscriptPruneTask creates the scheduled task function that deletes
// archived transcripts older than the configured retention window.
func newTranscriptPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "transcript_prune")
	retentionDays := deps.Config.Database.TranscriptRetentionDays

	return func(ctx context.Context) error {
		cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
		log.InfoContext(ctx, "Starting scheduled transcript prune task...", "cutoff", cutoff)
		startTime := time.Now()

		count, err := deps.Store.DeleteTranscriptsBefore(ctx, cutoff)

		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Transcript prune task failed", "error", err, "duration", duration)
			return fmt.Errorf("transcript prune failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled transcript prune task completed successfully",
			"deleted", count, "duration", duration)
		return nil
	}
}
