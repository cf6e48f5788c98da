package handlers

import (
	"bytes"
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jdmsharpe/discord-grok/internal/grok"
)

// NewImageHandler creates the /image handler. The result is uploaded as an
// attachment with a parameter-echo embed.
func NewImageHandler(deps HandlerDeps) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	log := deps.Logger.With("handler", "image")

	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		}); err != nil {
			log.Error("Failed to defer interaction", "error", err)
			return
		}

		opts := optionMap(i)
		req := grok.ImageRequest{
			Prompt:      stringOption(opts, "prompt", ""),
			Model:       stringOption(opts, "model", grok.DefaultImageModel),
			AspectRatio: stringOption(opts, "aspect_ratio", ""),
		}

		log.Info("Generating image", "model", req.Model, "aspect_ratio", req.AspectRatio)

		ctx, cancel := context.WithTimeout(context.Background(), deps.Config.XAI.RequestTimeout)
		defer cancel()

		result, err := deps.GrokClient.GenerateImage(ctx, req)
		if err != nil {
			log.Error("Image generation failed", "error", err)
			embeds := []*discordgo.MessageEmbed{errorEmbed(grok.FormatAPIError(err))}
			_, _ = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
			return
		}

		embed := &discordgo.MessageEmbed{
			Title: "Image",
			Color: responseColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Prompt", Value: truncateText(req.Prompt, 1024)},
				{Name: "Model", Value: req.Model, Inline: true},
			},
			Image: &discordgo.MessageEmbedImage{URL: "attachment://grok-image.png"},
		}
		if req.AspectRatio != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Aspect ratio", Value: req.AspectRatio, Inline: true,
			})
		}

		embeds := []*discordgo.MessageEmbed{embed}
		files := []*discordgo.File{{
			Name:        "grok-image.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(result.Data),
		}}
		if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Embeds: &embeds,
			Files:  files,
		}); err != nil {
			log.Error("Failed to send image reply", "error", err)
		}
	}
}
