package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"SignalDesk/internal/services/strategy"
)

func strategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the available strategy identifiers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, id := range strategy.NewRegistry(nil).List() {
				marker := " "
				if id == string(strategy.DefaultID) {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, id)
			}
			return nil
		},
	}
}
