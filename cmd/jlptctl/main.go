// Команда jlptctl - административные операции без HTTP: миграции и коды активации.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourusername/jlpt-api/internal/config"
	"github.com/yourusername/jlpt-api/pkg/database"
	"github.com/yourusername/jlpt-api/pkg/logger"
)

var (
	configPath       string
	migrationsSource string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "jlptctl",
		Short:        "Administrative tool for the JLPT API",
		SilenceUsage: true,
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config/config.yaml"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "path to config file")
	rootCmd.PersistentFlags().StringVar(&migrationsSource, "migrations", database.DefaultMigrationsSource, "migrations source URL")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newCodesCmd())
	return rootCmd
}

// env - общие зависимости подкоманд
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, true)
	if err != nil {
		return nil, err
	}
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.log.Sync()
}
