// Package cli implements the crossing command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rpggio/crossing/internal/config"
)

// Version is stamped at build time.
var Version = "dev"

type rootOptions struct {
	format     string
	configPath string
}

// NewRootCommand builds the crossing command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "crossing",
		Short:         "Traffic-light schedules for a set of intersections",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.format {
			case "text", "json", "yaml":
				return nil
			default:
				return fmt.Errorf("unknown --format %q (want text, json or yaml)", opts.format)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "output format: text, json or yaml")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides CROSSING_CONFIG_PATH)")

	serve := newServeCommand(opts)
	stdio := newMCPCommand(opts)
	cmd.AddCommand(serve, stdio, newListCommand(opts), newWindowCommand(opts))

	// Without a subcommand the transport mode from config decides.
	cmd.Args = cobra.NoArgs
	cmd.RunE = func(c *cobra.Command, args []string) error {
		cfg, err := opts.loadConfig()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cfg.Transport.Mode == "stdio" {
			return stdio.RunE(c, args)
		}
		return serve.RunE(c, args)
	}
	return cmd
}

// Execute runs the root command under ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFrom(o.configPath)
	}
	return config.Load()
}

// render writes v in the selected format; text is produced by textFn.
func (o *rootOptions) render(w io.Writer, v any, textFn func(io.Writer) error) error {
	switch o.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return textFn(w)
	}
}
