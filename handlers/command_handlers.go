package handlers

import (
	"context"
	"fmt"
	"unicode/utf8"

	"commitbot/lifecycle"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Discord message content limit.
const maxContent = 2000

// HandleCycle handles the logic for the /cycle command.
func (h *Handlers) HandleCycle(s Responder, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		optionMap[opt.Name] = opt
	}

	var kindName string
	var force bool
	if opt, ok := optionMap["kind"]; ok {
		kindName = opt.StringValue()
	}
	if opt, ok := optionMap["force"]; ok {
		force = opt.BoolValue()
	}

	kind, err := lifecycle.ParseKind(kindName)
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("Error: %v", err))
		return
	}

	// Respond to the interaction immediately.
	respondEphemeral(s, i, fmt.Sprintf("Starting the **%s** cycle (force: %t)...", kind, force))

	// Run the cycle in a goroutine.
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		h.logger.Info("Manual cycle requested", zap.String("kind", string(kind)), zap.Bool("force", force))
		result, err := lifecycle.Run(context.Background(), h.runner, kind, lifecycle.RunOptions{Force: force})

		var content string
		switch {
		case err != nil && result == nil:
			content = fmt.Sprintf("❌ %s cycle failed: %v", kind, err)
		case err != nil:
			content = fmt.Sprintf("❌ %s cycle failed after %d ms.\n%s", kind, result.ExecutionTimeMS, result.Summary())
		default:
			content = fmt.Sprintf("✅ %s cycle finished in %d ms.\n%s", kind, result.ExecutionTimeMS, result.Summary())
		}

		_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: truncate(content, maxContent),
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		if err != nil {
			h.logger.Error("Failed to send follow-up", zap.Error(err))
		}
	}()
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s Responder, i *discordgo.InteractionCreate) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
		},
	})
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - len("…")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
