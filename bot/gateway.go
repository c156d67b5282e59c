package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ErrNoThread is returned by SendGroup when no target thread is configured.
var ErrNoThread = errors.New("no group thread configured")

// Session is the part of *discordgo.Session the gateway needs.
type Session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMemberDelete(guildID, userID string, options ...discordgo.RequestOption) error
}

// Gateway delivers lifecycle notifications and performs soft removals.
type Gateway struct {
	session Session
	guildID string
	logger  *zap.Logger
}

// NewGateway creates a gateway acting on guildID.
func NewGateway(session Session, guildID string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{session: session, guildID: guildID, logger: logger}
}

// SendDirect sends text to the member's DM channel and returns the message id.
func (g *Gateway) SendDirect(ctx context.Context, memberID int64, text string) (string, error) {
	userID := strconv.FormatInt(memberID, 10)

	channel, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to open DM channel for %s: %w", userID, err)
	}

	msg, err := g.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send DM to %s: %w", userID, err)
	}
	return msg.ID, nil
}

// SendGroup posts text into a thread or channel of the community.
func (g *Gateway) SendGroup(ctx context.Context, text, threadID string) error {
	if threadID == "" {
		return ErrNoThread
	}
	if _, err := g.session.ChannelMessageSend(threadID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post to thread %s: %w", threadID, err)
	}
	return nil
}

// RemoveWithoutBan kicks the member from the guild. They may rejoin with a new invite.
func (g *Gateway) RemoveWithoutBan(ctx context.Context, memberID int64) error {
	userID := strconv.FormatInt(memberID, 10)
	if err := g.session.GuildMemberDelete(g.guildID, userID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to remove %s from guild %s: %w", userID, g.guildID, err)
	}
	g.logger.Info("Removed member from guild", zap.Int64("member_id", memberID))
	return nil
}
