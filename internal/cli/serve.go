package cli

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/crossing/internal/app"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API and MCP over HTTP with schedulers running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cfg.Transport.Mode = "http"
			if addr == "" {
				addr = cfg.Server.Addr()
			}

			logger, closeLog, err := newLogger(cfg.Log.Level, cfg.Log.Path, os.Stdout)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := app.New(cfg, logger, app.WithVersion(Version))
			if err != nil {
				return err
			}
			defer a.Close()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			a.Start(cmd.Context())
			return a.ServeHTTP(cmd.Context(), ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.host:server.port)")
	return cmd
}

func newMCPCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP over stdio with schedulers running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cfg.Transport.Mode = "stdio"

			// stdout carries JSON-RPC
			logger, closeLog, err := newLogger(cfg.Log.Level, cfg.Log.Path, os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := app.New(cfg, logger, app.WithVersion(Version))
			if err != nil {
				return err
			}
			defer a.Close()

			a.Start(cmd.Context())
			return a.ServeStdio(cmd.Context())
		},
	}
}
