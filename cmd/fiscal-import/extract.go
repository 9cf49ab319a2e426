package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fiscal-extract/internal/aggregate"
	"github.com/joseph-ayodele/fiscal-extract/internal/app"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/export"
)

type extractOutput struct {
	Import    *entity.ImportJob      `json:"import"`
	Duplicate bool                   `json:"duplicate,omitempty"`
	Items     []entity.CanonicalItem `json:"items"`
	Summary   aggregate.Summary      `json:"summary"`
}

func extractCmd(g *globals) *cobra.Command {
	var (
		family    string
		xlsxPath  string
		persist   bool
		reprocess bool
	)
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract items from one document and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fam, err := parseFamily(family)
			if err != nil {
				return err
			}
			a, _, _, err := g.build(cmd, app.Options{Persist: persist, Reprocess: reprocess})
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Processor.ProcessFile(cmd.Context(), args[0], fam)
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				data, err := export.Workbook(out.Items, nil)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", xlsxPath, err)
				}
			}
			return writeJSON(cmd.OutOrStdout(), extractOutput{
				Import:    out.Job,
				Duplicate: out.Duplicate,
				Items:     out.Items,
				Summary:   aggregate.Summarize(out.Items, nil),
			})
		},
	}
	familyFlag(cmd, &family)
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the items to this XLSX file")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the import and its items in the database")
	cmd.Flags().BoolVar(&reprocess, "reprocess", false, "import again even if the same file already succeeded")
	return cmd
}
