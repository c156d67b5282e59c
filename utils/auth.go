package utils

import (
	"slices"

	"commitbot/models"

	"github.com/bwmarrin/discordgo"
)

// Permission levels used by the command dispatcher.
const (
	LevelDeveloper = "developer"
	LevelAdmin     = "admin"
	LevelGuest     = "guest"
)

// Auth provides methods for authorization checks.
type Auth struct {
	developers  []string
	adminsRoles []string
}

// NewAuth creates a new Auth instance from the bot configuration.
func NewAuth(cfg models.BotConfig) *Auth {
	return &Auth{developers: cfg.Developers, adminsRoles: cfg.AdminsRoles}
}

// IsDeveloper checks if a user is a developer.
func (a *Auth) IsDeveloper(userID string) bool {
	return slices.Contains(a.developers, userID)
}

// IsAdmin checks if a member has an admin role.
func (a *Auth) IsAdmin(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	for _, roleID := range member.Roles {
		if slices.Contains(a.adminsRoles, roleID) {
			return true
		}
	}
	return false
}

// CheckPermission checks if the interaction's author has the required permission level.
// Interactions from DMs carry no member and only pass developer or guest checks.
func (a *Auth) CheckPermission(i *discordgo.InteractionCreate, requiredLevel string) bool {
	var userID string
	switch {
	case i.Member != nil && i.Member.User != nil:
		userID = i.Member.User.ID
	case i.User != nil:
		userID = i.User.ID
	}

	switch requiredLevel {
	case LevelDeveloper:
		return a.IsDeveloper(userID)
	case LevelAdmin:
		return a.IsDeveloper(userID) || a.IsAdmin(i.Member)
	case LevelGuest:
		return true
	default:
		return false
	}
}
