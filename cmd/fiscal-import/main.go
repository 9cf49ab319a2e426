package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/app"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
)

var version = "0.1.0"

// globals holds the root flags; set ones override the environment.
type globals struct {
	dbDriver    string
	dbURL       string
	serviceURL  string
	markers     string
	logLevel    string
	dedupPeriod bool
	sequential  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "fiscal-import",
		Short: "Extract and normalise items from Brazilian tax reports",
		Long: `fiscal-import turns tax-status reports and DARF payment documents
into canonical order items.

Documents are read locally (PDF, text, saved JSON answers) or through the
extraction service when EXTRACTION_SERVICE_URL or --service-url is set.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.dbDriver, "db-driver", "", "database driver: sqlite or postgres (env DB_DRIVER)")
	pf.StringVar(&g.dbURL, "db-url", "", "database DSN (env DB_URL)")
	pf.StringVar(&g.serviceURL, "service-url", "", "extraction service base URL (env EXTRACTION_SERVICE_URL)")
	pf.StringVar(&g.markers, "markers", "", "section marker YAML overriding the built-in table (env MARKERS_FILE)")
	pf.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	pf.BoolVar(&g.dedupPeriod, "dedup-period", false, "include the period in the dedup key (env DEDUP_INCLUDE_PERIOD)")
	pf.BoolVar(&g.sequential, "sequential", false, "build sections one at a time")

	rootCmd.AddCommand(extractCmd(g))
	rootCmd.AddCommand(batchCmd(g))
	rootCmd.AddCommand(exportCmd(g))
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(importsCmd(g))
	return rootCmd
}

// config loads the environment and applies the flags the user set.
func (g *globals) config(cmd *cobra.Command) *common.Config {
	cfg := common.LoadConfig()
	flags := cmd.Flags()
	if flags.Changed("db-driver") {
		cfg.Database.Driver = g.dbDriver
	}
	if flags.Changed("db-url") {
		cfg.Database.DSN = g.dbURL
	}
	if flags.Changed("service-url") {
		cfg.Extraction.ServiceURL = g.serviceURL
	}
	if flags.Changed("markers") {
		cfg.Pipeline.MarkersFile = g.markers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("dedup-period") {
		cfg.Pipeline.DedupIncludePeriod = g.dedupPeriod
	}
	if flags.Changed("sequential") {
		cfg.Pipeline.ParallelSections = !g.sequential
	}
	return cfg
}

func (g *globals) build(cmd *cobra.Command, opts app.Options) (*app.App, *common.Config, *slog.Logger, error) {
	cfg := g.config(cmd)
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)
	a, err := app.Build(cmd.Context(), cfg, opts, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, cfg, logger, nil
}

func familyFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "family", "tax-status", "document family: tax-status or darf")
}

func parseFamily(s string) (constants.DocumentFamily, error) {
	f, ok := constants.ParseFamily(s)
	if !ok {
		return "", fmt.Errorf("unknown family %q (use tax-status or darf)", s)
	}
	return f, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
