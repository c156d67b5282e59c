package handlers

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// CommandDispatcher is the central handler for all application command interactions.
// It performs permission checks and then dispatches the interaction to the appropriate handler.
func (h *Handlers) CommandDispatcher(s Responder, i *discordgo.InteractionCreate) {
	commandName := i.ApplicationCommandData().Name

	if requiredLevel, ok := h.permissions[commandName]; ok {
		if !h.auth.CheckPermission(i, requiredLevel) {
			h.logger.Warn("Permission denied", zap.String("command", commandName))
			respondEphemeral(s, i, "🚫 You are not allowed to run this command.")
			return
		}
	}

	switch commandName {
	case "cycle":
		h.HandleCycle(s, i)
	case "ping":
		HandlePing(s, i)
	default:
		respondEphemeral(s, i, "🚫 Internal error: unknown command.")
	}
}

func respondEphemeral(s Responder, i *discordgo.InteractionCreate, content string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
