package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fiscal-extract/internal/app"
)

func importsCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List recent imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, err := g.build(cmd, app.Options{Persist: true})
			if err != nil {
				return err
			}
			defer a.Close()
			jobs, err := a.Jobs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), jobs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of imports to show")
	return cmd
}
