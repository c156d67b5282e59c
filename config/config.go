package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"commitbot/models"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

var (
	ErrMissingToken     = errors.New("no bot token provided")
	ErrInvalidLifecycle = errors.New("invalid lifecycle configuration")
)

// LoadConfig 从多个源加载配置：.env 文件、config.yaml 以及环境变量。
// 配置加载顺序:
// 1. .env 文件 (用于环境变量)
// 2. 当前目录或 ./config/ 下的 config.yaml，或 path 指定的文件
// 3. 环境变量，会覆盖配置文件中的同名设置 (bot.token -> BOT_TOKEN)
func LoadConfig(path string) (*models.Config, error) {
	// 1. 从 .env 文件加载环境变量，如果文件不存在则忽略。
	if err := godotenv.Load(); err != nil {
		log.Printf("未找到 .env 文件，将跳过加载。")
	}

	v := viper.New()
	setDefaults(v)

	// 2. 设置并读取基础配置文件。
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // 配置文件名 (无扩展名)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.AutomaticEnv()                                   // 自动读取匹配的环境变量
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将配置键中的'.'替换为'_'以匹配环境变量

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// 找到配置文件但解析出错
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Printf("未找到基础配置文件 (config.yaml)，将仅使用环境变量和默认值。")
	}

	// 3. 令牌通常以 BOT_TOKEN 提供。
	if token := v.GetString("BOT_TOKEN"); token != "" {
		v.Set("bot.token", token)
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.guild_id", "")
	v.SetDefault("bot.admin_channel_id", "")
	v.SetDefault("bot.group_channel_id", "")
	v.SetDefault("bot.report_thread_id", "")
	v.SetDefault("database.path", "data/commitbot.db")
	v.SetDefault("lifecycle.auto_pause_days", 7)
	v.SetDefault("lifecycle.reminder_days", 3)
	v.SetDefault("lifecycle.new_member_window_days", 7)
	v.SetDefault("lifecycle.same_day_guard", true)
	v.SetDefault("lifecycle.load_retries", 3)
	v.SetDefault("lifecycle.timezone", "UTC")
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.daily", "0 0 * * *")
	v.SetDefault("schedule.weekly", "55 23 * * 0")
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate 检查批处理依赖的配置项。
func Validate(cfg *models.Config) error {
	lc := cfg.Lifecycle
	if lc.AutoPauseDays < 1 {
		return fmt.Errorf("%w: auto_pause_days must be at least 1", ErrInvalidLifecycle)
	}
	// 1 和 0 在订阅倒计时中有各自的含义。
	if lc.ReminderDays < 2 {
		return fmt.Errorf("%w: reminder_days must be at least 2", ErrInvalidLifecycle)
	}
	if lc.NewMemberWindowDays < 0 {
		return fmt.Errorf("%w: new_member_window_days must not be negative", ErrInvalidLifecycle)
	}
	if _, err := time.LoadLocation(lc.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidLifecycle, lc.Timezone, err)
	}
	// 这里只校验能否解析。周任务需早于日任务触发，日任务会清空所有人的 post_today。
	if cfg.Schedule.Enabled {
		for name, spec := range map[string]string{"daily": cfg.Schedule.Daily, "weekly": cfg.Schedule.Weekly} {
			if _, err := cron.ParseStandard(spec); err != nil {
				return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
			}
		}
	}
	return nil
}

// RequireToken 在未配置机器人令牌时返回 ErrMissingToken。
func RequireToken(cfg *models.Config) error {
	if cfg.Bot.Token == "" {
		return ErrMissingToken
	}
	return nil
}
