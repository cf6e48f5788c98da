package config

import (
	"time"

	"github.com/spf13/viper"
)

// Defaults for optional configuration values.
const (
	DefaultLogLevel = "info"

	DefaultXAIBaseURL           = "https://api.x.ai/v1"
	DefaultXAIMaxRetries        = 2
	DefaultXAIRetryDelaySeconds = 5
	DefaultXAIRequestTimeout    = 5 * time.Minute
	DefaultVideoPollInterval    = 5 * time.Second

	DefaultTypingInterval = 5 * time.Second

	DefaultDatabasePath            = "transcripts.db"
	DefaultTranscriptRetentionDays = 90
)

// DefaultMessages are the stock user-facing strings.
var DefaultMessages = Messages{
	ConversationExists: "You already have an active conversation in this channel. Please finish it before starting a new one.",
	NoConversation:     "No active conversation found.",
	NotOwner:           "Only the user who started this conversation can do that.",
	NotEnoughHistory:   "Not enough history to regenerate yet.",
	RegenerateNotFound: "Couldn't find the message to regenerate.",
	RegenerateFailed:   "An error occurred while regenerating the response.",
	Regenerated:        "Response regenerated.",
	ConversationEnded:  "Conversation ended.",
	ToolsDisabled:      "Tools disabled for this conversation.",
	GeneralError:       "An error occurred. Please try again later.",
	EmptyResponse:      "No response.",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)

	// Required keys get empty defaults so environment overrides are picked up
	// even without a config file.
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.guild_ids", []string{})
	v.SetDefault("xai.api_key", "")

	v.SetDefault("xai.base_url", DefaultXAIBaseURL)
	v.SetDefault("xai.max_retries", DefaultXAIMaxRetries)
	v.SetDefault("xai.retry_delay_seconds", DefaultXAIRetryDelaySeconds)
	v.SetDefault("xai.request_timeout", DefaultXAIRequestTimeout)
	v.SetDefault("xai.video_poll_interval", DefaultVideoPollInterval)

	v.SetDefault("bot.typing_interval", DefaultTypingInterval)

	v.SetDefault("bot.messages.conversation_exists", DefaultMessages.ConversationExists)
	v.SetDefault("bot.messages.no_conversation", DefaultMessages.NoConversation)
	v.SetDefault("bot.messages.not_owner", DefaultMessages.NotOwner)
	v.SetDefault("bot.messages.not_enough_history", DefaultMessages.NotEnoughHistory)
	v.SetDefault("bot.messages.regenerate_not_found", DefaultMessages.RegenerateNotFound)
	v.SetDefault("bot.messages.regenerate_failed", DefaultMessages.RegenerateFailed)
	v.SetDefault("bot.messages.regenerated", DefaultMessages.Regenerated)
	v.SetDefault("bot.messages.conversation_ended", DefaultMessages.ConversationEnded)
	v.SetDefault("bot.messages.tools_disabled", DefaultMessages.ToolsDisabled)
	v.SetDefault("bot.messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("bot.messages.empty_response", DefaultMessages.EmptyResponse)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.transcript_retention_days", DefaultTranscriptRetentionDays)

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 4 * * *")
	v.SetDefault("scheduler.tasks.transcript_prune.enabled", true)
	v.SetDefault("scheduler.tasks.transcript_prune.schedule", "30 4 * * *")
}
