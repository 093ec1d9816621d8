package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/hurma-bot/internal/calendar"
	"github.com/username/hurma-bot/internal/config"
	"github.com/username/hurma-bot/internal/daemon"
	"github.com/username/hurma-bot/internal/notify"
	"github.com/username/hurma-bot/pkg/dateutil"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hurma-bot",
		Short:         "Hurma HR absence digest",
		Long:          "Collect vacations, sick leaves, birthdays and work anniversaries from Hurma and post them to Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config only to pick the log destination; errors surface in the command itself
			cfg, err := config.Load(configPath)
			if err != nil {
				initLogger("info")
				return
			}
			if cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err == nil {
					return
				}
			}
			initLogger(cfg.Log.Level)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: ./config.yaml if present)")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(daemonCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func checkCmd() *cobra.Command {
	var (
		nextDay bool
		dryRun  bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Collect the digest once and deliver it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(!dryRun); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			notifier, err := newNotifier(cfg, dryRun, output)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := newRunner(cfg, notifier, logger)
			target := dateutil.NewTarget(time.Now(), nextDay)

			return r.Run(ctx, target)
		},
	}

	cmd.Flags().BoolVar(&nextDay, "next-day", false, "Check tomorrow instead of today")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the digest instead of sending it")
	cmd.Flags().StringVarP(&output, "output", "o", notify.FormatText, "Dry-run output format: text, json or ics")

	return cmd
}

func daemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(true); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			notifier, err := newNotifier(cfg, false, "")
			if err != nil {
				return err
			}

			r := newRunner(cfg, notifier, logger)

			var cal calendar.Calendar
			if cfg.Daemon.WorkdaysOnly {
				cal = calendar.NewCompositeCalendar(
					calendar.NewIsDayOffCalendar(cfg.Calendar.BaseURL, cfg.Calendar.Timeout, logger),
					calendar.WeekendCalendar{},
					logger,
				)
			}

			d, err := daemon.NewDaemon(r.Run, cal, daemon.Options{
				Schedule:     cfg.Daemon.Schedule,
				NextDay:      cfg.Daemon.NextDay,
				WorkdaysOnly: cfg.Daemon.WorkdaysOnly,
				Location:     cfg.Daemon.GetLocation(),
				SystemTray:   cfg.Daemon.SystemTray,
			}, logger)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}

	return cmd
}

func newNotifier(cfg *config.Config, dryRun bool, output string) (notify.Notifier, error) {
	renderer, err := notify.NewRenderer(cfg.Notify.Language)
	if err != nil {
		return nil, err
	}

	if dryRun {
		return notify.NewStdoutNotifier(os.Stdout, output, renderer)
	}

	return notify.NewTelegramNotifier(notify.TelegramOptions{
		BotToken:    cfg.Telegram.BotToken,
		ChatID:      cfg.Telegram.ChatID,
		APIEndpoint: cfg.Telegram.APIEndpoint,
		SkipEmpty:   cfg.Notify.SkipEmpty,
	}, renderer, logger)
}
