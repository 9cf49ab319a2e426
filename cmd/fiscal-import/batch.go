package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fiscal-extract/internal/app"
	"github.com/joseph-ayodele/fiscal-extract/internal/async"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/export"
	"github.com/joseph-ayodele/fiscal-extract/internal/ingest"
	"github.com/joseph-ayodele/fiscal-extract/internal/pipeline"
)

type batchFile struct {
	Path      string `json:"path"`
	ImportID  string `json:"import_id,omitempty"`
	Items     int    `json:"items"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

type batchReport struct {
	Files     []batchFile     `json:"files"`
	Scan      ingest.DirStats `json:"scan"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Items     int             `json:"items"`
}

func batchCmd(g *globals) *cobra.Command {
	var (
		family        string
		workers       int
		exts          []string
		includeHidden bool
		persist       bool
		reprocess     bool
		xlsxPath      string
	)
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Import every document under a directory concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fam, err := parseFamily(family)
			if err != nil {
				return err
			}
			a, cfg, logger, err := g.build(cmd, app.Options{Persist: persist, Reprocess: reprocess})
			if err != nil {
				return err
			}
			defer a.Close()

			scanner := ingest.NewScanner(logger,
				ingest.WithExtensions(ingest.ExtSet(exts)),
				ingest.WithSkipHidden(!includeHidden),
			)
			refs, stats, err := scanner.Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if workers <= 0 {
				workers = cfg.Queue.Workers
			}
			var (
				mu       sync.Mutex
				report   = batchReport{Scan: stats}
				allItems []entity.CanonicalItem
			)
			record := func(f batchFile, items []entity.CanonicalItem) {
				mu.Lock()
				defer mu.Unlock()
				report.Files = append(report.Files, f)
				if f.Error != "" {
					report.Failed++
					return
				}
				report.Succeeded++
				report.Items += len(items)
				allItems = append(allItems, items...)
			}

			queue := async.NewProcessorQueue(a.Processor, logger,
				async.WithWorkers(workers),
				async.WithQueueSize(cfg.Queue.Size),
				async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
				async.WithResultFunc(func(job async.Job, out *pipeline.Outcome, err error) {
					f := batchFile{Path: job.Path}
					if out != nil && out.Job != nil {
						f.ImportID = out.Job.ID.String()
					}
					if err != nil {
						f.Error = err.Error()
						record(f, nil)
						return
					}
					f.Items, f.Duplicate = len(out.Items), out.Duplicate
					record(f, out.Items)
				}),
			)
			for _, ref := range refs {
				if ref.Err != "" {
					record(batchFile{Path: ref.Path, Error: ref.Err}, nil)
					continue
				}
				if err := queue.Enqueue(cmd.Context(), async.Job{Path: ref.Path, Family: fam}); err != nil {
					record(batchFile{Path: ref.Path, Error: err.Error()}, nil)
				}
			}
			if err := queue.Shutdown(context.WithoutCancel(cmd.Context())); err != nil {
				return err
			}

			if xlsxPath != "" {
				data, err := export.Workbook(allItems, nil)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", xlsxPath, err)
				}
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	familyFlag(cmd, &family)
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent imports (default QUEUE_WORKERS)")
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "file extensions to import (default pdf,txt,json)")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "also import hidden files and directories")
	cmd.Flags().BoolVar(&persist, "persist", false, "store imports and items in the database")
	cmd.Flags().BoolVar(&reprocess, "reprocess", false, "import again files that already succeeded")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write all extracted items to this XLSX file")
	return cmd
}
