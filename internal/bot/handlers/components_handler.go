package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jdmsharpe/discord-grok/internal/conversation"
	"github.com/jdmsharpe/discord-grok/internal/database"
	"github.com/jdmsharpe/discord-grok/internal/grok"
)

// archiveTimeout bounds the transcript write when a conversation stops.
const archiveTimeout = 10 * time.Second

// NewComponentHandler creates the handler for the conversation component
// view. All actions are owner-only; interactions referencing a conversation
// that no longer exists get an ephemeral notice.
func NewComponentHandler(deps HandlerDeps) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	log := deps.Logger.With("handler", "components")
	msgs := deps.Config.Bot.Messages

	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		conversationID, action, ok := parseCustomID(i.MessageComponentData().CustomID)
		if !ok {
			return
		}

		conv, ok := deps.Registry.Get(conversationID)
		if !ok {
			if err := ephemeralReply(s, i, msgs.NoConversation); err != nil {
				log.Error("Failed to send dead-conversation notice", "error", err)
			}
			return
		}

		user := interactionUser(i)
		if user == nil || user.ID != conv.OwnerID() {
			if err := ephemeralReply(s, i, msgs.NotOwner); err != nil {
				log.Error("Failed to send ownership notice", "error", err)
			}
			return
		}

		switch action {
		case actionRegenerate:
			handleRegenerate(s, i, deps, log, conv)
		case actionPause:
			handlePause(s, i, log, conv)
		case actionStop:
			handleStop(s, i, deps, log, conv)
		case actionTools:
			handleTools(s, i, msgs.ToolsDisabled, log, conv)
		default:
			log.Warn("Unknown component action", "action", action, "conversation_id", conversationID)
		}
	}
}

// handleRegenerate removes the last exchange and re-runs generation with the
// removed user entry. Any failure puts the removed pair back before the error
// is reported, so the conversation is never left shorter than it started.
func handleRegenerate(s *discordgo.Session, i *discordgo.InteractionCreate, deps HandlerDeps, log *slog.Logger, conv *conversation.Conversation) {
	msgs := deps.Config.Bot.Messages

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		log.Error("Failed to defer regenerate interaction", "error", err)
		return
	}

	user, previous, err := conv.PopLastExchange()
	if err != nil {
		switch {
		case errors.Is(err, conversation.ErrNotEnoughHistory):
			ephemeralFollowup(s, i, msgs.NotEnoughHistory)
		case errors.Is(err, conversation.ErrHistoryShape):
			ephemeralFollowup(s, i, msgs.RegenerateNotFound)
		default:
			ephemeralFollowup(s, i, msgs.GeneralError)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deps.Config.XAI.RequestTimeout)
	defer cancel()

	completion, err := deps.GrokClient.Complete(ctx, grok.CompletionRequest{
		Params:  conv.Params(),
		History: conv.History(),
		Input:   user,
	})
	if err != nil {
		conv.Restore(user, previous)
		log.Error("Regeneration failed", "conversation_id", conv.ID(), "error", err)
		ephemeralFollowup(s, i, msgs.RegenerateFailed+"\n"+grok.FormatAPIError(err))
		return
	}

	conv.AppendExchange(user, conversation.Entry{Role: conversation.RoleAssistant, Text: completion.Content})

	sendConversationReply(s, deps, log, conv, nil, completion)
	ephemeralFollowup(s, i, msgs.Regenerated)
}

// handlePause toggles the paused flag and refreshes the component view in
// place.
func handlePause(s *discordgo.Session, i *discordgo.InteractionCreate, log *slog.Logger, conv *conversation.Conversation) {
	paused := conv.TogglePause()
	log.Info("Conversation pause toggled", "conversation_id", conv.ID(), "paused", paused)

	components := conversationView(conv.ID(), paused, conv.Params().Tools, false)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     i.Message.Embeds,
			Components: components,
		},
	}); err != nil {
		log.Error("Failed to update pause view", "conversation_id", conv.ID(), "error", err)
	}
}

// handleStop removes the conversation from the registry, disables the view,
// and archives the transcript.
func handleStop(s *discordgo.Session, i *discordgo.InteractionCreate, deps HandlerDeps, log *slog.Logger, conv *conversation.Conversation) {
	msgs := deps.Config.Bot.Messages

	removed, ok := deps.Registry.Remove(conv.ID())
	if !ok {
		if err := ephemeralReply(s, i, msgs.NoConversation); err != nil {
			log.Error("Failed to send dead-conversation notice", "error", err)
		}
		return
	}
	log.Info("Conversation stopped", "conversation_id", removed.ID(), "history_len", removed.Len())

	components := conversationView(removed.ID(), removed.Paused(), removed.Params().Tools, true)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     i.Message.Embeds,
			Components: components,
		},
	}); err != nil {
		log.Error("Failed to disable conversation view", "conversation_id", removed.ID(), "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	transcript, messages := buildTranscript(removed)
	if err := deps.Store.SaveTranscript(ctx, transcript, messages); err != nil {
		log.Error("Failed to archive transcript", "conversation_id", removed.ID(), "error", err)
	}

	ephemeralFollowup(s, i, msgs.ConversationEnded)
}

// handleTools replaces the conversation's tool set with the menu selection.
// Unknown values are silently dropped.
func handleTools(s *discordgo.Session, i *discordgo.InteractionCreate, disabledMsg string, log *slog.Logger, conv *conversation.Conversation) {
	selected := conversation.ParseTools(i.MessageComponentData().Values)
	conv.SetTools(selected)
	log.Info("Conversation tools updated", "conversation_id", conv.ID(), "tools", len(selected))

	components := conversationView(conv.ID(), conv.Paused(), selected, false)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     i.Message.Embeds,
			Components: components,
		},
	}); err != nil {
		log.Error("Failed to update tools view", "conversation_id", conv.ID(), "error", err)
		return
	}

	if len(selected) == 0 {
		ephemeralFollowup(s, i, disabledMsg)
		return
	}
	names := make([]string, 0, len(selected))
	for _, t := range selected {
		names = append(names, string(t))
	}
	ephemeralFollowup(s, i, fmt.Sprintf("Tools enabled: %s", strings.Join(names, ", ")))
}

// buildTranscript converts a finished conversation into archive rows.
func buildTranscript(conv *conversation.Conversation) (*database.Transcript, []database.TranscriptMessage) {
	params := conv.Params()
	history := conv.History()

	transcript := &database.Transcript{
		ConversationID: params.ID,
		OwnerID:        params.OwnerID,
		ChannelID:      params.ChannelID,
		Model:          params.Model,
		SystemPrompt:   params.SystemPrompt,
		StartedAt:      params.StartedAt,
		EndedAt:        time.Now().UTC(),
	}

	messages := make([]database.TranscriptMessage, 0, len(history))
	for _, entry := range history {
		msg := database.TranscriptMessage{
			Role:    string(entry.Role),
			Content: entry.Text,
		}
		if len(entry.ImageURLs) > 0 {
			msg.ImageURLs.String = strings.Join(entry.ImageURLs, "\n")
			msg.ImageURLs.Valid = true
		}
		messages = append(messages, msg)
	}
	return transcript, messages
}
