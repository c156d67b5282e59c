package command

import (
	"commitbot/utils"

	"github.com/bwmarrin/discordgo"
)

// CycleCommand defines the structure for the /cycle command.
type CycleCommand struct{}

// Definition returns the application command definition.
func (c *CycleCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "cycle",
		Description: "Run a membership cycle now",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "kind",
				Description: "Which cycle to run",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{
						Name:  "Daily",
						Value: "daily",
					},
					{
						Name:  "Weekly",
						Value: "weekly",
					},
				},
			},
			{
				Name:        "force",
				Description: "Run even if the cycle already ran today",
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Required:    false,
			},
		},
	}
}

// Permission returns the level required to run a cycle.
func (c *CycleCommand) Permission() string {
	return utils.LevelAdmin
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}

// Permission returns the level required to ping.
func (c *PingCommand) Permission() string {
	return utils.LevelGuest
}
