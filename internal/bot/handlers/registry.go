package handlers

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jdmsharpe/discord-grok/internal/grok"
)

func float64Ptr(v float64) *float64 { return &v }

// CommandDefinitions returns the slash command set the bot registers.
func CommandDefinitions() []*discordgo.ApplicationCommand {
	chatModelChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(grok.ChatModels))
	for _, m := range grok.ChatModels {
		chatModelChoices = append(chatModelChoices, &discordgo.ApplicationCommandOptionChoice{Name: m, Value: m})
	}
	imageModelChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(grok.ImageModels))
	for _, m := range grok.ImageModels {
		imageModelChoices = append(imageModelChoices, &discordgo.ApplicationCommandOptionChoice{Name: m, Value: m})
	}
	aspectChoices := func(ratios ...string) []*discordgo.ApplicationCommandOptionChoice {
		out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(ratios))
		for _, r := range ratios {
			out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: r, Value: r})
		}
		return out
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "converse",
			Description: "Start a conversation with Grok in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prompt",
					Description: "Opening message",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "system_prompt",
					Description: "System prompt for the whole conversation",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "model",
					Description: "Chat model (default " + grok.DefaultChatModel + ")",
					Choices:     chatModelChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "attachment",
					Description: "Image to include with the opening message",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "max_tokens",
					Description: "Response token limit",
					MinValue:    float64Ptr(1),
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "temperature",
					Description: "Sampling temperature (0-2)",
					MinValue:    float64Ptr(0),
					MaxValue:    2,
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "top_p",
					Description: "Nucleus sampling cutoff (0-1)",
					MinValue:    float64Ptr(0),
					MaxValue:    1,
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "frequency_penalty",
					Description: "Frequency penalty (-2 to 2)",
					MinValue:    float64Ptr(-2),
					MaxValue:    2,
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "presence_penalty",
					Description: "Presence penalty (-2 to 2)",
					MinValue:    float64Ptr(-2),
					MaxValue:    2,
				},
			},
		},
		{
			Name:        "image",
			Description: "Generate an image with Grok",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prompt",
					Description: "Image description",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "model",
					Description: "Image model (default " + grok.DefaultImageModel + ")",
					Choices:     imageModelChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "aspect_ratio",
					Description: "Aspect ratio",
					Choices:     aspectChoices("1:1", "16:9", "9:16", "4:3", "3:4"),
				},
			},
		},
		{
			Name:        "video",
			Description: "Generate a video with Grok",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prompt",
					Description: "Video description",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "aspect_ratio",
					Description: "Aspect ratio",
					Choices:     aspectChoices("16:9", "9:16", "1:1"),
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "duration",
					Description: "Duration in seconds",
					MinValue:    float64Ptr(1),
					MaxValue:    15,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "resolution",
					Description: "Output resolution",
					Choices:     aspectChoices("720p", "480p"),
				},
			},
		},
		{
			Name:        "permissions",
			Description: "Check whether the bot can read messages in this channel",
		},
	}
}

// AttachHandlers wires all Discord event handlers onto the session and
// registers the slash commands once the gateway reports ready.
func AttachHandlers(session *discordgo.Session, deps HandlerDeps) {
	log := deps.Logger.With("component", "handlers")

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("Discord gateway ready", "username", r.User.Username, "guilds", len(r.Guilds))
		deps.Config.Discord.BotUser = r.User

		if err := registerCommands(s, deps); err != nil {
			log.Error("Failed to register slash commands", "error", err)
		}
	})

	session.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		log.Warn("Discord gateway disconnected")
	})

	session.AddHandler(NewInteractionDispatcher(deps))
	session.AddHandler(NewMessageRouter(deps))
}

// registerCommands overwrites the bot's command set, per configured guild or
// globally when no guilds are configured.
func registerCommands(s *discordgo.Session, deps HandlerDeps) error {
	log := deps.Logger.With("component", "handlers")
	defs := CommandDefinitions()
	appID := s.State.User.ID

	guildIDs := deps.Config.Discord.GuildIDs
	if len(guildIDs) == 0 {
		guildIDs = []string{""}
	}
	for _, guildID := range guildIDs {
		if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, defs); err != nil {
			return err
		}
		log.Info("Registered slash commands", "guild_id", guildID, "count", len(defs))
	}
	return nil
}

// NewInteractionDispatcher routes interactions to the matching slash command
// or component handler.
func NewInteractionDispatcher(deps HandlerDeps) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	commandHandlers := map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"converse":    NewConverseHandler(deps),
		"image":       NewImageHandler(deps),
		"video":       NewVideoHandler(deps),
		"permissions": NewPermissionsHandler(deps),
	}
	componentHandler := NewComponentHandler(deps)

	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			name := i.ApplicationCommandData().Name
			handler, ok := commandHandlers[name]
			if !ok {
				deps.Logger.Warn("Received unknown slash command", "name", name)
				return
			}
			handler(s, i)
		case discordgo.InteractionMessageComponent:
			componentHandler(s, i)
		}
	}
}
