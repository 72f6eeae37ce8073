package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"storefront/internal/config"
)

// cli holds state shared by all subcommands once the root command has
// loaded the configuration.
type cli struct {
	cfg    *config.Config
	stdout io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{stdout: os.Stdout}

	root := &cobra.Command{
		Use:          "storefront",
		Short:        "Storefront admin API for managing shop categories",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := newLogger(os.Stderr, cfg)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			c.cfg = cfg
			c.stdout = cmd.OutOrStdout()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply schema migrations and drop cached snapshots",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create the default shop and owner if no account exists",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.seed(cmd.Context())
			},
		},
		newCheckCmd(c),
	)

	return root
}
