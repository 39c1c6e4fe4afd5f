package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"SignalDesk/internal/di"
	"SignalDesk/internal/usecase"
)

func evaluateCmd(flags *rootFlags) *cobra.Command {
	var withReport bool
	cmd := &cobra.Command{
		Use:   "evaluate [instrument...]",
		Short: "Evaluate instruments once and print the evaluations as JSON",
		Long:  "Evaluate the given instruments, or every configured instrument when none are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			engine, cleanup, err := di.InitializeEngine(cfg)
			if err != nil {
				return fmt.Errorf("engine initialization failed: %w", err)
			}
			defer cleanup()

			ctx := cmd.Context()
			if withReport {
				if _, err := engine.Report(ctx); err != nil {
					return err
				}
			}

			if len(args) == 0 {
				evs, err := engine.Tick(ctx)
				if werr := writeJSON(cmd.OutOrStdout(), evs); werr != nil {
					return werr
				}
				return err
			}

			out := make([]usecase.Evaluation, 0, len(args))
			var errs []error
			for _, inst := range args {
				ev, err := engine.Evaluate(ctx, inst)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				out = append(out, ev)
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&withReport, "with-report", true, "generate a market report before evaluating")
	return cmd
}

func reportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Generate a market analysis report from the latest snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			engine, cleanup, err := di.InitializeEngine(cfg)
			if err != nil {
				return fmt.Errorf("engine initialization failed: %w", err)
			}
			defer cleanup()

			report, err := engine.Report(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}
