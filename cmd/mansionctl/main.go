package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shownfy/kansai-mansion-analytics/internal/app"
	"github.com/shownfy/kansai-mansion-analytics/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "mansionctl",
		Short: "Kansai condominium price warehouse and model tool",
		Long: `mansionctl builds the transaction warehouse, trains the price model
and runs predictions against the latest artifact without the API server.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.yaml", "config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("db-type", "", "warehouse database type (sqlite, mysql, postgres)")
	rootCmd.PersistentFlags().String("db-path", "", "SQLite warehouse file")
	rootCmd.PersistentFlags().String("source", "", "raw transaction JSON file")
	rootCmd.PersistentFlags().String("model-dir", "", "model artifact directory")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.type", rootCmd.PersistentFlags().Lookup("db-type"))
	_ = viper.BindPFlag("database.sqlite.path", rootCmd.PersistentFlags().Lookup("db-path"))
	_ = viper.BindPFlag("source.path", rootCmd.PersistentFlags().Lookup("source"))
	_ = viper.BindPFlag("model.dir", rootCmd.PersistentFlags().Lookup("model-dir"))

	// Add commands
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(rebuildCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(pruneCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(masterdataCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// MANSION_DATABASE_SQLITE_PATH overrides database.sqlite.path and so on
	viper.SetEnvPrefix("MANSION")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return config.SetupLogger(config.LoggingConfig{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	})
}

// loadConfig reads the YAML file and applies flag and environment
// overrides on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, viper.GetViper())
	return cfg, cfg.Validate()
}

func applyOverrides(cfg *config.Config, v *viper.Viper) {
	if s := v.GetString("database.type"); s != "" {
		cfg.Database.Type = s
	}
	if s := v.GetString("database.sqlite.path"); s != "" {
		cfg.Database.SQLite.Path = s
	}
	if s := v.GetString("source.path"); s != "" {
		cfg.Source.Path = s
	}
	if s := v.GetString("model.dir"); s != "" {
		cfg.Model.Dir = s
	}
	if s := v.GetString("master_data_path"); s != "" {
		cfg.MasterDataPath = s
	}
}

func openApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.New(cfg)
}
