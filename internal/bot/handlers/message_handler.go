package handlers

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/jdmsharpe/discord-grok/internal/conversation"
	"github.com/jdmsharpe/discord-grok/internal/grok"
)

// NewMessageRouter creates the MessageCreate handler that continues active
// conversations. A message continues a conversation only when both the author
// and the channel match the conversation's owner and channel; paused
// conversations ignore messages entirely.
func NewMessageRouter(deps HandlerDeps) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	log := deps.Logger.With("handler", "message_router")

	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}

		conv, ok := deps.Registry.FindByChannelUser(m.ChannelID, m.Author.ID)
		if !ok {
			return
		}
		if conv.Paused() {
			log.Debug("Skipping message for paused conversation",
				"conversation_id", conv.ID(), "message_id", m.ID)
			return
		}

		input := conversation.Entry{
			Role:      conversation.RoleUser,
			Text:      m.Content,
			ImageURLs: imageURLsFromAttachments(m.Attachments),
		}
		if input.Text == "" && len(input.ImageURLs) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), deps.Config.XAI.RequestTimeout)
		defer cancel()

		typingCtx, stopTyping := context.WithCancel(ctx)
		go keepTyping(typingCtx, s, m.ChannelID, deps.Config.Bot.TypingInterval, log)

		completion, err := deps.GrokClient.Complete(ctx, grok.CompletionRequest{
			Params:  conv.Params(),
			History: conv.History(),
			Input:   input,
		})
		stopTyping()

		if err != nil {
			// History is untouched; the user can resend the message.
			log.Error("Generation failed", "conversation_id", conv.ID(), "error", err)
			_, _ = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
				Embeds:    []*discordgo.MessageEmbed{errorEmbed(grok.FormatAPIError(err))},
				Reference: m.Reference(),
			})
			return
		}

		conv.AppendExchange(input, conversation.Entry{Role: conversation.RoleAssistant, Text: completion.Content})

		sendConversationReply(s, deps, log, conv, m, completion)
	}
}

// sendConversationReply sends a completion as one or more embed messages,
// attaching the component view to the last one and tracking every reply in
// the registry.
func sendConversationReply(
	s *discordgo.Session,
	deps HandlerDeps,
	log *slog.Logger,
	conv *conversation.Conversation,
	m *discordgo.MessageCreate,
	completion *grok.Completion,
) {
	embeds := buildResponseEmbeds(completion.Content, completion.ReasoningContent, deps.Config.Bot.Messages.EmptyResponse)

	for start := 0; start < len(embeds); start += maxEmbedsPerMessage {
		end := start + maxEmbedsPerMessage
		if end > len(embeds) {
			end = len(embeds)
		}
		send := &discordgo.MessageSend{Embeds: embeds[start:end]}
		if start == 0 && m != nil {
			send.Reference = m.Reference()
		}
		if end == len(embeds) {
			send.Components = conversationView(conv.ID(), conv.Paused(), conv.Params().Tools, false)
		}

		sent, err := s.ChannelMessageSendComplex(conv.ChannelID(), send)
		if err != nil {
			log.Error("Failed to send conversation reply", "conversation_id", conv.ID(), "error", err)
			return
		}
		deps.Registry.TrackMessage(sent.ID, conv.ID())
	}
}
