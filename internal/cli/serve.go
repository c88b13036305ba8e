package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/blog/internal/server"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the blog HTTP server",
		Long: `Run the blog HTTP server.

The database must already exist; create it first with:

	blog init-db
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.OutOrStdout(), cfg.LogLevel)

			if cfg.GeneratedSecret {
				logger.Warn("SECRET_KEY not set; using a random key, sessions will not survive a restart")
			}
			if err := ensureDir(cfg.DBPath); err != nil {
				return err
			}

			srv, err := server.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			logger.Debug("configuration loaded",
				slog.String("addr", cfg.Addr()),
				slog.Duration("sessionTTL", cfg.SessionTTL),
				slog.Int("bcryptCost", cfg.BcryptCost),
				slog.Bool("secureCookies", cfg.SecureCookies),
			)
			return srv.Start(cmd.Context())
		},
	}
}
