package command

import (
	"commitbot/utils"

	"github.com/bwmarrin/discordgo"
)

// Command 描述一个斜杠命令：向 Discord 注册的定义，以及执行它所需的权限级别
type Command interface {
	Definition() *discordgo.ApplicationCommand
	Permission() string
}

// registry 按注册顺序保存所有命令
var registry = []Command{
	&CycleCommand{},
	&PingCommand{},
}

// Definitions 返回需要向 Discord 注册的全部命令定义
func Definitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(registry))
	for _, cmd := range registry {
		defs = append(defs, cmd.Definition())
	}
	return defs
}

// Permissions 返回命令名到所需权限级别的映射
func Permissions() map[string]string {
	levels := make(map[string]string, len(registry))
	for _, cmd := range registry {
		levels[cmd.Definition().Name] = knownLevel(cmd.Permission())
	}
	return levels
}

// knownLevel 将未知的权限级别按管理员处理
func knownLevel(level string) string {
	switch level {
	case utils.LevelGuest, utils.LevelAdmin, utils.LevelDeveloper:
		return level
	default:
		return utils.LevelAdmin
	}
}
