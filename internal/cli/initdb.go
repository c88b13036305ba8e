package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/blog/internal/repository/sqlite"
)

func newInitDBCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Clear existing data and create new tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			if err := ensureDir(cfg.DBPath); err != nil {
				return err
			}

			db, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Init(cmd.Context()); err != nil {
				return err
			}

			logger.Info("database initialised", slog.String("path", cfg.DBPath))
			fmt.Fprintln(cmd.OutOrStdout(), "Initialized the database.")
			return nil
		},
	}
}
