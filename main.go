package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"proposal_assistant/config"
	"proposal_assistant/logging"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "proposal-assistant",
		Short:         "Staged consulting proposal generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (YAML or JSON)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logs")

	cmd.AddCommand(serveCmd(opts), generateCmd(opts))
	return cmd
}

// load reads config and builds the process logger.
func (o *rootOptions) load() (config.Config, *logging.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	log, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}
