package main

import (
	"fmt"

	"github.com/martinsuhendra/manta/internal/config"
	"github.com/martinsuhendra/manta/pkg/database"
	"github.com/martinsuhendra/manta/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env is loaded once per invocation by the root command.
type env struct {
	cfg    *config.ServiceConfig
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "mantactl",
		Short:         "Maintenance commands for the manta membership service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			l, err := logger.NewNamed(cfg.AppEnv, "mantactl")
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			e.cfg = cfg
			e.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	root.AddCommand(newMigrateCmd(e), newFreezesCmd(e))
	return root
}

func (e *env) postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     e.cfg.DBConfig.Host,
		Port:     e.cfg.DBConfig.Port,
		User:     e.cfg.DBConfig.User,
		Password: e.cfg.DBConfig.Password,
		DBName:   e.cfg.DBConfig.DBName,
		SSLMode:  e.cfg.DBConfig.SSLMode,
	}
}

func (e *env) connect() (*gorm.DB, error) {
	return database.Connect(e.postgres(), e.logger)
}
