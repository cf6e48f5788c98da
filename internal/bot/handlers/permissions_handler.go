package handlers

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// NewPermissionsHandler creates the /permissions handler, reporting whether
// the bot can read and reply in the invoking channel.
func NewPermissionsHandler(deps HandlerDeps) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	log := deps.Logger.With("handler", "permissions")

	checks := []struct {
		name string
		bit  int64
	}{
		{"View channel", discordgo.PermissionViewChannel},
		{"Send messages", discordgo.PermissionSendMessages},
		{"Read message history", discordgo.PermissionReadMessageHistory},
		{"Embed links", discordgo.PermissionEmbedLinks},
		{"Attach files", discordgo.PermissionAttachFiles},
	}

	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" {
			if err := ephemeralReply(s, i, "All permissions are available in direct messages."); err != nil {
				log.Error("Failed to send permissions reply", "error", err)
			}
			return
		}

		perms, err := s.UserChannelPermissions(s.State.User.ID, i.ChannelID)
		if err != nil {
			log.Error("Failed to resolve channel permissions", "channel_id", i.ChannelID, "error", err)
			if err := ephemeralReply(s, i, deps.Config.Bot.Messages.GeneralError); err != nil {
				log.Error("Failed to send permissions reply", "error", err)
			}
			return
		}

		var lines []string
		for _, check := range checks {
			mark := "❌"
			if perms&check.bit != 0 {
				mark = "✅"
			}
			lines = append(lines, fmt.Sprintf("%s %s", mark, check.name))
		}

		if err := ephemeralReply(s, i, strings.Join(lines, "\n")); err != nil {
			log.Error("Failed to send permissions reply", "error", err)
		}
	}
}
