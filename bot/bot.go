package bot

import (
	"fmt"

	"commitbot/models"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session  *discordgo.Session
	Commands []*discordgo.ApplicationCommand
	Config   models.BotConfig

	logger *zap.Logger
}

// NewBot creates and initializes a new Bot instance.
func NewBot(cfg models.BotConfig, logger *zap.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsDirectMessages

	return &Bot{
		Session:  dg,
		Config:   cfg,
		logger:   logger.Named("bot"),
	}, nil
}

// RegisterCommands queues slash command definitions for Start.
func (b *Bot) RegisterCommands(defs []*discordgo.ApplicationCommand) {
	b.Commands = append(b.Commands, defs...)
}

// Gateway returns the messaging gateway backed by this bot's session.
func (b *Bot) Gateway() *Gateway {
	return NewGateway(b.Session, b.Config.GuildID, b.logger)
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	// Overwrite the guild's slash commands so ones no longer defined disappear.
	created, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, b.Config.GuildID, b.Commands)
	if err != nil {
		b.logger.Error("Cannot register commands", zap.Int("commands", len(b.Commands)), zap.Error(err))
	} else {
		b.logger.Info("Registered commands", zap.Int("commands", len(created)))
	}

	b.logger.Info("Bot is now running")
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	if b.Session != nil {
		if err := b.Session.Close(); err != nil {
			b.logger.Warn("Error closing session", zap.Error(err))
		}
	}
	b.logger.Info("Bot stopped gracefully")
}
