// Package cli defines the blog command line:
//
//	blog serve      run the HTTP server
//	blog init-db    clear the database and create the tables
//
// Both read configuration from the environment (see internal/config);
// --db overrides DB_PATH.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/blog/internal/config"
)

type options struct {
	dbPath string
}

// NewRootCommand builds the command tree. Output goes to stdout/stderr of
// the returned command, so tests can capture it with SetOut/SetErr.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "blog",
		Short:         "A small multi-user blog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to the SQLite database (overrides DB_PATH)")

	root.AddCommand(newServeCommand(opts), newInitDBCommand(opts))
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute(ctx context.Context) {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "blog: %v\n", err)
		os.Exit(1)
	}
}

// load reads the configuration and applies flag overrides.
func (o *options) load() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ensureDir creates the directory that will hold the database file.
func ensureDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}
