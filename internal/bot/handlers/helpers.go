package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jdmsharpe/discord-grok/internal/conversation"
)

const (
	// embedChunkSize is the maximum description length per response embed.
	embedChunkSize = 3500

	// maxResponseLength caps the total rendered response; anything longer is
	// truncated with a notice.
	maxResponseLength = 20000

	// maxEmbedsPerMessage is Discord's embed limit per message.
	maxEmbedsPerMessage = 10

	responseColor = 0x1d9bf0
	errorColor    = 0xed4245
)

// chunkText splits s into pieces of at most size runes, preferring to break
// on newlines and falling back to hard splits.
func chunkText(s string, size int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= size {
			chunks = append(chunks, string(runes))
			break
		}
		cut := size
		for i := size; i > size/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

// truncateText caps s at max runes, appending a truncation notice when it
// had to cut.
func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "\n\n*(response truncated)*"
}

// buildResponseEmbeds renders a completion as Discord embeds: an optional
// spoilered reasoning embed followed by the response content in chunks.
func buildResponseEmbeds(content, reasoning, emptyMessage string) []*discordgo.MessageEmbed {
	var embeds []*discordgo.MessageEmbed

	if reasoning != "" {
		spoilered := "||" + truncateText(reasoning, embedChunkSize-10) + "||"
		embeds = append(embeds, &discordgo.MessageEmbed{
			Title:       "Reasoning",
			Description: spoilered,
			Color:       responseColor,
		})
	}

	if content == "" {
		content = emptyMessage
	}
	content = truncateText(content, maxResponseLength)
	for _, chunk := range chunkText(content, embedChunkSize) {
		embeds = append(embeds, &discordgo.MessageEmbed{
			Description: chunk,
			Color:       responseColor,
		})
	}
	return embeds
}

// errorEmbed renders a failure for the user.
func errorEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Error",
		Description: truncateText(description, embedChunkSize),
		Color:       errorColor,
	}
}

// keepTyping shows the typing indicator in a channel until ctx is cancelled.
// Discord's indicator expires after roughly ten seconds, so it is refreshed
// on a shorter interval.
func keepTyping(ctx context.Context, s *discordgo.Session, channelID string, interval time.Duration, log *slog.Logger) {
	if err := s.ChannelTyping(channelID); err != nil {
		log.DebugContext(ctx, "Failed to send typing indicator", "channel_id", channelID, "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ChannelTyping(channelID); err != nil {
				log.DebugContext(ctx, "Failed to send typing indicator", "channel_id", channelID, "error", err)
			}
		}
	}
}

// Component custom IDs follow conv:<conversation id>:<action>.
const (
	customIDPrefix = "conv"

	actionRegenerate = "regen"
	actionPause      = "pause"
	actionStop       = "stop"
	actionTools      = "tools"
)

func conversationCustomID(conversationID, action string) string {
	return customIDPrefix + ":" + conversationID + ":" + action
}

// parseCustomID splits a component custom ID into conversation ID and action.
func parseCustomID(customID string) (conversationID, action string, ok bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != customIDPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func intPtr(v int) *int { return &v }

// conversationView builds the lifecycle components attached to conversation
// replies: regenerate/pause/stop buttons and the tool select menu.
func conversationView(conversationID string, paused bool, selected []conversation.Tool, disabled bool) []discordgo.MessageComponent {
	pauseLabel := "Pause"
	if paused {
		pauseLabel = "Resume"
	}

	selectedSet := make(map[conversation.Tool]bool, len(selected))
	for _, t := range selected {
		selectedSet[t] = true
	}
	options := make([]discordgo.SelectMenuOption, 0, len(conversation.AvailableTools))
	for _, t := range conversation.AvailableTools {
		options = append(options, discordgo.SelectMenuOption{
			Label:   string(t),
			Value:   string(t),
			Default: selectedSet[t],
		})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Regenerate",
					Style:    discordgo.PrimaryButton,
					CustomID: conversationCustomID(conversationID, actionRegenerate),
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    pauseLabel,
					Style:    discordgo.SecondaryButton,
					CustomID: conversationCustomID(conversationID, actionPause),
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    "Stop",
					Style:    discordgo.DangerButton,
					CustomID: conversationCustomID(conversationID, actionStop),
					Disabled: disabled,
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    conversationCustomID(conversationID, actionTools),
					Placeholder: "Enable tools",
					MinValues:   intPtr(0),
					MaxValues:   len(conversation.AvailableTools),
					Options:     options,
					Disabled:    disabled,
				},
			},
		},
	}
}

// supportedImageTypes are the attachment content types forwarded to the
// provider as image URLs.
var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// imageURLsFromAttachments filters message attachments down to supported
// image types.
func imageURLsFromAttachments(attachments []*discordgo.MessageAttachment) []string {
	var urls []string
	for _, a := range attachments {
		if a == nil {
			continue
		}
		contentType := strings.ToLower(strings.SplitN(a.ContentType, ";", 2)[0])
		if supportedImageTypes[contentType] {
			urls = append(urls, a.URL)
		}
	}
	return urls
}

// ephemeralReply responds to an interaction with an ephemeral text message.
func ephemeralReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// ephemeralFollowup sends an ephemeral followup after a deferred response.
func ephemeralFollowup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// formatParamsField renders the non-default generation parameters for a
// parameter-echo embed field.
func formatParamsField(params conversation.Params) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("model: %s", params.Model))
	if params.MaxTokens > 0 {
		parts = append(parts, fmt.Sprintf("max_tokens: %d", params.MaxTokens))
	}
	if params.Temperature != nil {
		parts = append(parts, fmt.Sprintf("temperature: %.2f", *params.Temperature))
	}
	if params.TopP != nil {
		parts = append(parts, fmt.Sprintf("top_p: %.2f", *params.TopP))
	}
	if params.FrequencyPenalty != nil {
		parts = append(parts, fmt.Sprintf("frequency_penalty: %.2f", *params.FrequencyPenalty))
	}
	if params.PresencePenalty != nil {
		parts = append(parts, fmt.Sprintf("presence_penalty: %.2f", *params.PresencePenalty))
	}
	return strings.Join(parts, "\n")
}
