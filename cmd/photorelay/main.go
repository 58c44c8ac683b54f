package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"photorelay/internal/config"
	"photorelay/internal/filter"
	"photorelay/internal/ledger"
	"photorelay/internal/notify"
	"photorelay/internal/relay"
	"photorelay/internal/source"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "photorelay",
		Short: "photorelay: relay new channel photos to chat webhooks",
		Long:  "photorelay scans configured Telegram channels once, relays each new photo to its Discord or Slack destination, and exits. Run it from cron for continuous coverage.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ~/.photorelay/config.yaml)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Perform one relay pass over all configured mappings",
		RunE:  runRelay,
	}
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openLedgerStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	led := ledger.Open(store, logger)

	targets := make([]relay.Target, 0, len(cfg.Mappings))
	for _, m := range cfg.Mappings {
		n, err := notify.ForMapping(m, cfg.Slack.BotToken, logger)
		if err != nil {
			logger.Warn("mapping disabled: bad destination", "mapping", m.Name, "err", err)
			n = nil
		}
		targets = append(targets, relay.Target{Name: m.Name, Notifier: n})
	}

	orch := relay.New(relay.Options{
		Source:       source.NewTelegram(source.TelegramConfig{Token: cfg.Telegram.Token, Logger: logger}),
		Targets:      targets,
		Ledger:       led,
		Window:       filter.Window{Location: cfg.Location(), Days: cfg.Filter.WindowDays},
		HistoryLimit: cfg.Telegram.HistoryLimit,
		Retention:    cfg.Retention(),
		Pacer:        relay.NewTokenBucket(cfg.Pacing.Burst, cfg.PacingInterval()),
		Logger:       logger,
	})

	return orch.Run(ctx)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check source authentication and ledger state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger = newLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src := source.NewTelegram(source.TelegramConfig{Token: cfg.Telegram.Token, Logger: logger})
			if err := src.Authenticate(ctx); err != nil {
				logger.Error("telegram", "healthy", false, "err", err)
			} else {
				logger.Info("telegram", "healthy", true)
			}

			store, closeStore, err := openLedgerStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			led := ledger.Open(store, logger)
			logger.Info("ledger", "backend", cfg.Ledger.Backend, "path", cfg.Ledger.Path, "records", led.Len())

			enabled := 0
			for _, m := range cfg.Mappings {
				if m.Enabled() {
					enabled++
				}
			}
			logger.Info("mappings", "configured", len(cfg.Mappings), "enabled", enabled)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// openLedgerStore builds the configured ledger backend. The returned close
// function is a no-op for the file backend.
func openLedgerStore(cfg *config.Config) (ledger.Store, func(), error) {
	switch cfg.Ledger.Backend {
	case "sqlite":
		store, err := ledger.NewSQLiteStore(cfg.Ledger.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("ledger store: %w", err)
		}
		return store, func() { store.Close() }, nil
	default:
		return ledger.NewFileStore(cfg.Ledger.Path), func() {}, nil
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
