package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"court-watcher/checker"
	"court-watcher/config"
	"court-watcher/crawler"
	"court-watcher/handlers"
	"court-watcher/logging"
	"court-watcher/metrics"
	"court-watcher/notifier"
	"court-watcher/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "court-watcher",
	Short:         "Watches facility reservation pages and reports availability changes.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one availability check and exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		_, err = a.checker.Run(cmd.Context())
		return err
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Checks periodically, serves metrics and answers bot commands.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return a.watch(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file (defaults and environment only when empty)")
	rootCmd.AddCommand(runCmd, watchCmd)
}

type app struct {
	conf    *config.Config
	store   *storage.Storage
	bot     *tgbotapi.BotAPI
	checker *checker.Checker
}

func setup(ctx context.Context) (*app, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(conf.Log.Level, conf.Log.Pretty)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", conf.Timezone).Msg("⚠️ Failed to load timezone (using UTC)")
	} else {
		time.Local = loc
		log.Info().
			Str("timezone", conf.Timezone).
			Str("now", time.Now().Format("2006-01-02 15:04:05 MST")).
			Msg("🌍 Timezone set")
	}

	a := &app{conf: conf}

	a.store = storage.New(conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
	if err := a.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	var n notifier.Notifier
	switch conf.Notifier.Kind {
	case "telegram":
		a.bot, err = tgbotapi.NewBotAPI(conf.Notifier.Token)
		if err != nil {
			return nil, fmt.Errorf("telegram bot: %w", err)
		}
		log.Info().Str("account", a.bot.Self.UserName).Msg("🤖 Authorized")
		if n, err = notifier.NewTelegram(a.bot, conf.Notifier.Channel); err != nil {
			return nil, err
		}
	default:
		slack := notifier.NewSlack(conf.Notifier.Token, conf.Notifier.Channel)
		if conf.Notifier.URL != "" {
			slack = slack.WithURL(conf.Notifier.URL)
		}
		n = slack
	}

	crawlConf, err := conf.Crawler()
	if err != nil {
		return nil, err
	}
	c, err := crawler.New(crawlConf)
	if err != nil {
		return nil, err
	}
	conds, err := conf.ScheduleConditions()
	if err != nil {
		return nil, err
	}

	a.checker = checker.New(c, a.store, n, conf.CrawlCategories(), conds)
	a.checker.Maintenance = conf.MaintenanceWindows()
	a.checker.Schedule = conf.CheckSchedule()
	return a, nil
}

func (a *app) watch(ctx context.Context) error {
	if a.conf.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(a.conf.Metrics.Addr); err != nil {
				log.Error().Err(err).Msg("❌ Metrics server stopped")
			}
		}()
	}

	if a.bot != nil {
		chatID, err := strconv.ParseInt(a.conf.Notifier.Channel, 10, 64)
		if err != nil {
			return fmt.Errorf("telegram chat id: %w", err)
		}
		conds, _ := a.conf.ScheduleConditions()
		handler := handlers.New(a.bot, a.store, a.checker, conds, chatID)
		go a.serveBot(ctx, handler)
	}

	log.Info().Msg("✅ Watcher is running...")
	err := a.checker.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("👋 Shutting down")
		return nil
	}
	return err
}

func (a *app) serveBot(ctx context.Context, h *handlers.Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.bot.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		a.bot.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message != nil {
			h.HandleMessage(ctx, update.Message)
		}
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to close redis client")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("❌ court-watcher failed")
		stop()
		os.Exit(1)
	}
}
