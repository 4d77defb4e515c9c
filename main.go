package main

import (
	"context"
	"os"
	"os/signal"
	"partywork/app"
	"partywork/config"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string
	var addr string

	load := func() (*config.AppConfig, error) {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		if addr != "" {
			c.HTTP.Addr = addr
		}
		return c, nil
	}
	run := func(fn func(ctx context.Context, c *config.AppConfig) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := fn(ctx, c); err != nil {
				logrus.Errorf("%s failed: %v", cmd.Name(), err)
				return err
			}
			return nil
		}
	}

	root := &cobra.Command{
		Use:           "partywork",
		Short:         "Project management service for workspaces, projects, tasks and contributions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "yaml config file, defaults to $"+config.EnvConfigFile)

	serve := &cobra.Command{Use: "serve", Short: "Serve the http api and run background jobs", RunE: run(app.Serve)}
	serve.Flags().StringVar(&addr, "addr", "", "listen address, overrides http.addr")

	root.AddCommand(
		serve,
		&cobra.Command{Use: "migrate", Short: "Create or update database tables", RunE: run(app.Migrate)},
		&cobra.Command{Use: "reindex", Short: "Rebuild the task search index", RunE: run(app.Reindex)},
		&cobra.Command{Use: "directory-sync", Short: "Import users from the identity provider directory", RunE: run(app.DirectorySync)},
	)
	return root
}
