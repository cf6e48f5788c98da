package handlers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jdmsharpe/discord-grok/internal/grok"
)

// NewVideoHandler creates the /video handler. Generation is asynchronous on
// the provider side; a typing keep-alive runs in the channel while the job is
// polled.
func NewVideoHandler(deps HandlerDeps) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	log := deps.Logger.With("handler", "video")

	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		}); err != nil {
			log.Error("Failed to defer interaction", "error", err)
			return
		}

		opts := optionMap(i)
		req := grok.VideoRequest{
			Prompt:          stringOption(opts, "prompt", ""),
			AspectRatio:     stringOption(opts, "aspect_ratio", ""),
			DurationSeconds: intOption(opts, "duration", 0),
			Resolution:      stringOption(opts, "resolution", ""),
		}

		log.Info("Generating video",
			"aspect_ratio", req.AspectRatio, "duration", req.DurationSeconds, "resolution", req.Resolution)

		ctx, cancel := context.WithTimeout(context.Background(), deps.Config.XAI.RequestTimeout)
		defer cancel()

		typingCtx, stopTyping := context.WithCancel(ctx)
		go keepTyping(typingCtx, s, i.ChannelID, deps.Config.Bot.TypingInterval, log)

		result, err := deps.GrokClient.GenerateVideo(ctx, req)
		stopTyping()

		if err != nil {
			log.Error("Video generation failed", "error", err)
			embeds := []*discordgo.MessageEmbed{errorEmbed(grok.FormatAPIError(err))}
			_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
			return
		}

		embed := &discordgo.MessageEmbed{
			Title: "Video",
			Color: responseColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Prompt", Value: truncateText(req.Prompt, 1024)},
			},
		}
		if req.AspectRatio != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Aspect ratio", Value: req.AspectRatio, Inline: true,
			})
		}
		if req.DurationSeconds > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Duration", Value: fmt.Sprintf("%ds", req.DurationSeconds), Inline: true,
			})
		}
		if req.Resolution != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Resolution", Value: req.Resolution, Inline: true,
			})
		}

		embeds := []*discordgo.MessageEmbed{embed}
		files := []*discordgo.File{{
			Name:        "grok-video.mp4",
			ContentType: "video/mp4",
			Reader:      bytes.NewReader(result.Data),
		}}
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Embeds: &embeds,
			Files:  files,
		}); err != nil {
			log.Error("Failed to send video reply", "error", err)
		}
	}
}
