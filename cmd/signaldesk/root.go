package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"SignalDesk/pkg/config"
)

type rootFlags struct {
	configPath string
	envFile    string
}

func (f *rootFlags) load() (*config.Config, error) {
	return config.LoadWithEnv(f.configPath, f.envFile)
}

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "signaldesk",
		Short:         "Technical-analysis signal engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "config/config.yaml", "config file path")
	root.PersistentFlags().StringVar(&flags.envFile, "env", ".env", "dotenv file with SIGNALDESK_* overrides")

	root.AddCommand(
		runCmd(flags),
		evaluateCmd(flags),
		reportCmd(flags),
		strategiesCmd(),
	)
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
