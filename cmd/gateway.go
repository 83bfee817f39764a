package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dyebot/pkg/catalog"
	"dyebot/pkg/channel"
	"dyebot/pkg/channel/telegram"
	"dyebot/pkg/channel/whatsapp"
	"dyebot/pkg/config"
	"dyebot/pkg/dialog"
	"dyebot/pkg/gateway"
	"dyebot/pkg/logger"
	"dyebot/pkg/session"

	"github.com/spf13/cobra"
)

const (
	telegramChannelName = "telegram"
	whatsappChannelName = "whatsapp"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the channel gateway",
	Long:  "Runs DyeBot as a channel gateway with health and readiness endpoints.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.gateway")

		adapters, err := enabledAdapters(cfg, log)
		if err != nil {
			log.Error("Gateway configuration invalid", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		source, err := catalogSource(cfg)
		if err != nil {
			log.Error("Catalog configuration invalid", "error", err, "path", cfg.Catalog.Path)
			return
		}

		index, err := catalog.Load(runCtx, source)
		if err != nil {
			log.Error("Failed to load catalog", "error", err, "path", cfg.Catalog.Path)
			return
		}

		engine, err := dialog.NewEngine(index, session.NewStore(), nil, slog.Default())
		if err != nil {
			log.Error("Failed to initialize dialog engine", "error", err)
			return
		}

		svc, err := gateway.NewService(cfg, engine, adapters, log)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		log.Info("Gateway started", "channels", enabledChannelNames(adapters), "products", index.Len())
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Gateway runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

// catalogSource selects the configured catalog file, falling back to the
// compiled-in sample catalog when no path is set.
func catalogSource(cfg *config.Config) (catalog.Source, error) {
	if path := strings.TrimSpace(cfg.Catalog.Path); path != "" {
		return catalog.NewFileSource(path)
	}

	return catalog.Embedded(), nil
}

func enabledAdapters(cfg *config.Config, log *slog.Logger) ([]channel.Adapter, error) {
	adapters := make([]channel.Adapter, 0, 2)

	if cfg.Channels.Telegram.Enabled {
		adapter, err := telegram.NewAdapter(cfg.Channels.Telegram, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", telegramChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	if cfg.Channels.WhatsApp.Enabled {
		adapter, err := whatsapp.NewAdapter(cfg.Channels.WhatsApp, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", whatsappChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	if len(adapters) == 0 {
		return nil, errors.New("no channels are enabled")
	}

	return adapters, nil
}

func enabledChannelNames(adapters []channel.Adapter) string {
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		names = append(names, adapter.Name())
	}

	return strings.Join(names, ",")
}
