// Package handlers implements the Discord interaction surface: slash
// commands, the conversation message router, and the component view
// (regenerate/pause/stop buttons plus the tool select menu).
package handlers

import (
	"log/slog"

	"github.com/jdmsharpe/discord-grok/internal/config"
	"github.com/jdmsharpe/discord-grok/internal/conversation"
	"github.com/jdmsharpe/discord-grok/internal/database"
	"github.com/jdmsharpe/discord-grok/internal/grok"
)

// HandlerDeps provides dependencies for Discord event handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      database.Store
	GrokClient grok.Client
	Registry   *conversation.Registry
}
