package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jdmsharpe/discord-grok/internal/conversation"
	"github.com/jdmsharpe/discord-grok/internal/grok"
)

// NewConverseHandler creates the /converse handler. It starts a conversation,
// generates the first exchange inline, and replies with the component view.
func NewConverseHandler(deps HandlerDeps) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	log := deps.Logger.With("handler", "converse")
	msgs := deps.Config.Bot.Messages

	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		owner := interactionUser(i)
		if owner == nil {
			return
		}

		if _, exists := deps.Registry.FindByChannelUser(i.ChannelID, owner.ID); exists {
			if err := ephemeralReply(s, i, msgs.ConversationExists); err != nil {
				log.Error("Failed to send duplicate-conversation notice", "error", err)
			}
			return
		}

		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		}); err != nil {
			log.Error("Failed to defer interaction", "error", err)
			return
		}

		opts := optionMap(i)
		model := stringOption(opts, "model", grok.DefaultChatModel)
		params := conversation.Params{
			ID:               i.ID,
			OwnerID:          owner.ID,
			ChannelID:        i.ChannelID,
			StartedAt:        time.Now().UTC(),
			Model:            model,
			SystemPrompt:     stringOption(opts, "system_prompt", ""),
			MaxTokens:        intOption(opts, "max_tokens", 0),
			Temperature:      floatOption(opts, "temperature"),
			TopP:             floatOption(opts, "top_p"),
			FrequencyPenalty: floatOption(opts, "frequency_penalty"),
			PresencePenalty:  floatOption(opts, "presence_penalty"),
		}
		if grok.IsReasoningModel(model) {
			params.ReasoningEffort = "high"
		}

		conv := conversation.New(params)
		if err := deps.Registry.Create(conv); err != nil {
			content := msgs.GeneralError
			if errors.Is(err, conversation.ErrConversationExists) {
				content = msgs.ConversationExists
			}
			log.Warn("Failed to register conversation", "user_id", owner.ID, "channel_id", i.ChannelID, "error", err)
			_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
			return
		}

		input := conversation.Entry{Role: conversation.RoleUser, Text: stringOption(opts, "prompt", "")}
		if att := attachmentOption(i, opts, "attachment"); att != nil {
			input.ImageURLs = imageURLsFromAttachments([]*discordgo.MessageAttachment{att})
		}

		log.Info("Starting conversation",
			"conversation_id", conv.ID(), "user_id", owner.ID, "channel_id", i.ChannelID, "model", model)

		ctx, cancel := context.WithTimeout(context.Background(), deps.Config.XAI.RequestTimeout)
		defer cancel()

		completion, err := deps.GrokClient.Complete(ctx, grok.CompletionRequest{
			Params: conv.Params(),
			Input:  input,
		})
		if err != nil {
			// The conversation never produced an exchange; drop it so the
			// user can retry with /converse.
			deps.Registry.Remove(conv.ID())
			log.Error("First exchange failed", "conversation_id", conv.ID(), "error", err)
			embeds := []*discordgo.MessageEmbed{errorEmbed(grok.FormatAPIError(err))}
			_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
			return
		}

		conv.AppendExchange(input, conversation.Entry{Role: conversation.RoleAssistant, Text: completion.Content})

		embeds := buildResponseEmbeds(completion.Content, completion.ReasoningContent, msgs.EmptyResponse)
		if len(embeds) > maxEmbedsPerMessage {
			embeds = embeds[:maxEmbedsPerMessage]
		}
		embeds[len(embeds)-1].Footer = &discordgo.MessageEmbedFooter{Text: formatParamsField(conv.Params())}
		components := conversationView(conv.ID(), false, conv.Params().Tools, false)

		msg, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Embeds:     &embeds,
			Components: &components,
		})
		if err != nil {
			log.Error("Failed to send conversation reply", "conversation_id", conv.ID(), "error", err)
			return
		}
		deps.Registry.TrackMessage(msg.ID, conv.ID())
	}
}
