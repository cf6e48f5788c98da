// Package tasks implements scheduled tasks for the discord-grok bot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	"github.com/jdmsharpe/discord-grok/internal/config"
	"github.com/jdmsharpe/discord-grok/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
