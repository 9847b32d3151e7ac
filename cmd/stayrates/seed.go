package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"stayrates/internal/infra/config"
	"stayrates/internal/infra/fixtures"
	"stayrates/internal/infra/obs"
)

var errSeedMemory = errors.New("seed needs a persistent store; set STORE_MODE=mongo")

// seedCmd loads a fixtures file into MongoDB and exits. The in-memory store
// is seeded by serve on every start.
func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load apartments and pricing rules from a fixtures file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if cfg.StoreMode != config.StoreMongo {
				return errSeedMemory
			}
			logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
			slog.SetDefault(logger)

			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				path = cfg.FixturesPath
			}
			if path == "" {
				path = fixtures.DefaultPath()
			}

			infra, err := buildInfrastructure(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer infra.close()
			if err := fixtures.LoadFile(cmd.Context(), path, infra.sink, logger); err != nil {
				return fmt.Errorf("seed %s: %w", path, err)
			}
			logger.Info("fixtures loaded", "path", path, "database", cfg.MongoDB)
			return nil
		},
	}
	cmd.Flags().String("file", "", "fixtures file (defaults to FIXTURES_PATH or data/fixtures.json)")
	return cmd
}
