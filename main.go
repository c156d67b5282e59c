package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commitbot/bot"
	"commitbot/command"
	"commitbot/config"
	"commitbot/database"
	"commitbot/handlers"
	"commitbot/lifecycle"
	"commitbot/metrics"
	"commitbot/models"
	"commitbot/report"
	"commitbot/server"
	"commitbot/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const programName = "commitbot"

var configFile string

// app is everything a command needs to run a cycle.
type app struct {
	cfg       *models.Config
	logger    *zap.Logger
	db        *sql.DB
	bot       *bot.Bot
	registry  *prometheus.Registry
	processor *lifecycle.Processor
}

func newApp(cfg *models.Config) (*app, error) {
	logger, err := utils.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	if err := config.RequireToken(cfg); err != nil {
		return nil, err
	}

	db, err := database.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("Connected to the database", zap.String("path", cfg.Database.Path))

	b, err := bot.NewBot(cfg.Bot, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	groupThread := cfg.Bot.ReportThreadID
	if groupThread == "" {
		groupThread = cfg.Bot.GroupChannelID
	}
	lc, err := lifecycle.ConfigFromModel(cfg.Lifecycle, groupThread)
	if err != nil {
		db.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	processor := lifecycle.NewProcessor(
		database.NewMemberStore(db),
		b.Gateway(),
		report.New(b.Session, cfg.Bot.AdminChannelID, logger),
		lc,
		logger,
	).WithLedger(database.NewRunLedger(db)).WithMetrics(metrics.New(registry))

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		bot:       b,
		registry:  registry,
		processor: processor,
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("Failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func loadApp() (*app, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newApp(cfg)
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot with the cycle scheduler and HTTP trigger endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	h := handlers.New(a.processor, utils.NewAuth(a.cfg.Bot), a.logger)
	a.bot.RegisterCommands(command.Definitions())
	if err := a.bot.Start(func(b *bot.Bot) { handlers.Register(b, h) }); err != nil {
		return err
	}
	defer a.bot.Stop()

	var scheduler *bot.Scheduler
	if a.cfg.Schedule.Enabled {
		loc, err := time.LoadLocation(a.cfg.Lifecycle.Timezone)
		if err != nil {
			return fmt.Errorf("failed to load timezone: %w", err)
		}
		scheduler, err = bot.NewScheduler(a.processor, a.cfg.Schedule, loc, a.logger)
		if err != nil {
			return err
		}
		scheduler.Start()
	} else {
		a.logger.Info("Scheduler disabled, cycles run only on demand")
	}

	var srv *server.Server
	if a.cfg.HTTP.Enabled {
		srv = server.New(a.processor, a.cfg.HTTP, a.registry, a.logger)
		srv.Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a.logger.Info("Bot is now running. Press CTRL-C to exit.")
	<-ctx.Done()

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
		}
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	h.Wait()
	return nil
}

func cycleCommand(kind lifecycle.Kind) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: fmt.Sprintf("Run the %s cycle once and exit", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			result, err := lifecycle.Run(cmd.Context(), a.processor, kind, lifecycle.RunOptions{Force: force})
			if result != nil {
				fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "run even if the cycle already ran today")
	return cmd
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Membership lifecycle bot for a posting-commitment community",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(cycleCommand(lifecycle.KindDaily))
	rootCmd.AddCommand(cycleCommand(lifecycle.KindWeekly))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
