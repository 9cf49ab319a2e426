package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fiscal-extract/internal/app"
	"github.com/joseph-ayodele/fiscal-extract/internal/export"
)

func exportCmd(g *globals) *cobra.Command {
	var (
		importID string
		outPath  string
		include  []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the items of a stored import to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(importID))
			if err != nil {
				return fmt.Errorf("--import-id must be a UUID: %w", err)
			}
			flags, err := parseInclusion(include)
			if err != nil {
				return err
			}
			a, _, logger, err := g.build(cmd, app.Options{Persist: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Jobs.GetByID(cmd.Context(), id); err != nil {
				return fmt.Errorf("import %s: %w", id, err)
			}
			data, err := export.NewService(a.Items, logger).ExportImportXLSX(cmd.Context(), id, flags)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = "itens-" + id.String()[:8] + ".xlsx"
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&importID, "import-id", "", "import to export (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default itens-<id>.xlsx)")
	cmd.Flags().StringSliceVar(&include, "include", nil, "inclusion overrides like PARCELAMENTO_SIEFPAR=true")
	_ = cmd.MarkFlagRequired("import-id")
	return cmd
}
