package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"telegram-ecommerce-bot/internal/config"
	"telegram-ecommerce-bot/internal/infra/secrets"
)

var (
	cfgPath string
	devMode bool
)

var rootCmd = &cobra.Command{
	Use:   "ecombot",
	Short: "Telegram storefront bot for the shop REST API",
	Long: `ecombot lets Telegram users browse products, manage their cart and pay
for orders against an existing e-commerce REST API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "enable developer mode (console logs, debug level)")
}

// loadConfig reads the config file and resolves ssm: secret references.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(cfgPath, devMode)
	if err != nil {
		return nil, err
	}
	if !secrets.HasRefs(cfg) {
		return cfg, nil
	}
	client, err := secrets.NewFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if err := secrets.Resolve(ctx, cfg, client); err != nil {
		return nil, fmt.Errorf("resolve secrets: %w", err)
	}
	return cfg, nil
}
