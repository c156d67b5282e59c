package models

// Config is the full application configuration as loaded by the config package.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
}

// BotConfig holds the chat platform settings.
type BotConfig struct {
	Token          string   `mapstructure:"token"`
	GuildID        string   `mapstructure:"guild_id"`
	AdminChannelID string   `mapstructure:"admin_channel_id"`
	GroupChannelID string   `mapstructure:"group_channel_id"`
	ReportThreadID string   `mapstructure:"report_thread_id"`
	AdminsRoles    []string `mapstructure:"admins_roles"`
	Developers     []string `mapstructure:"developers"`
}

// DatabaseConfig points at the sqlite member database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LifecycleConfig tunes the batch processor.
type LifecycleConfig struct {
	AutoPauseDays       int    `mapstructure:"auto_pause_days"`
	ReminderDays        int    `mapstructure:"reminder_days"`
	NewMemberWindowDays int    `mapstructure:"new_member_window_days"`
	SameDayGuard        bool   `mapstructure:"same_day_guard"`
	LoadRetries         uint64 `mapstructure:"load_retries"`
	Timezone            string `mapstructure:"timezone"`
}

// ScheduleConfig holds the cron specs for the two cycles.
type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Daily   string `mapstructure:"daily"`
	Weekly  string `mapstructure:"weekly"`
}

// HTTPConfig configures the trigger endpoint used by external schedulers.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Secret  string `mapstructure:"secret"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}
