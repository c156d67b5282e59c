package handlers

import (
	"sync"

	"commitbot/bot"
	"commitbot/command"
	"commitbot/lifecycle"
	"commitbot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Responder is the part of *discordgo.Session the command handlers need.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handlers holds what the interaction handlers depend on.
type Handlers struct {
	runner      lifecycle.Runner
	auth        *utils.Auth
	permissions map[string]string
	logger      *zap.Logger

	wg sync.WaitGroup
}

// New creates the handler set.
func New(runner lifecycle.Runner, auth *utils.Auth, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		runner:      runner,
		auth:        auth,
		permissions: command.Permissions(),
		logger:      logger.Named("handlers"),
	}
}

// Wait blocks until background command runs have finished.
func (h *Handlers) Wait() {
	h.wg.Wait()
}

// Register all handlers to the bot.
func Register(b *bot.Bot, h *Handlers) {
	b.Session.AddHandler(h.InteractionCreate)

	// Add a ready handler to log when the bot is connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		h.logger.Info("Logged in", zap.String("user", s.State.User.Username))
	})
}
