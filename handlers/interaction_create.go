package handlers

import (
	"github.com/bwmarrin/discordgo"
)

// InteractionCreate handles slash command interactions.
func (h *Handlers) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type == discordgo.InteractionApplicationCommand {
		h.CommandDispatcher(s, i)
	}
}
