package handlers

import (
	"github.com/bwmarrin/discordgo"
)

// optionMap indexes a slash command's options by name.
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	data := i.ApplicationCommandData()
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		opts[opt.Name] = opt
	}
	return opts
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name, fallback string) string {
	opt, ok := opts[name]
	if !ok {
		return fallback
	}
	return opt.StringValue()
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, fallback int) int {
	opt, ok := opts[name]
	if !ok {
		return fallback
	}
	return int(opt.IntValue())
}

// floatOption returns nil when the option was not provided, so unset sampling
// knobs stay unset on the wire.
func floatOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *float32 {
	opt, ok := opts[name]
	if !ok {
		return nil
	}
	v := float32(opt.FloatValue())
	return &v
}

// attachmentOption resolves an attachment option to its metadata.
func attachmentOption(i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.MessageAttachment {
	opt, ok := opts[name]
	if !ok {
		return nil
	}
	id, ok := opt.Value.(string)
	if !ok {
		return nil
	}
	resolved := i.ApplicationCommandData().Resolved
	if resolved == nil {
		return nil
	}
	return resolved.Attachments[id]
}

// interactionUser returns the invoking user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
