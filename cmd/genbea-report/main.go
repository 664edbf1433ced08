package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"genbea/internal/config"
	"genbea/internal/dataset"
	"genbea/internal/files"
	"genbea/internal/infrastructure"
	customMiddleware "genbea/internal/middleware"
	"genbea/internal/quality"
	"genbea/internal/report"
	"genbea/internal/services"
)

// reportOptions holds the flags of the generate command.
type reportOptions struct {
	year               string
	period             string
	annual             bool
	search             string
	filters            []string
	purity             []string
	concentration      []string
	purityBands        bool
	concentrationBands bool
	dataDir            string
	outDir             string
	charts             bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:   "genbea-report",
		Short: "Generate GENBEA sample-status reports without the web dashboard",
		Long: `Generate the filtered PDF report, the XLSX export and the chart images
for a year or period selection, reading the same workbook files as the
dashboard.

Configuration is read like the server's (config.yaml and GENBEA_*
variables); the access secret is not needed.

Examples:
  genbea-report catalog
  genbea-report generate --year 2024 --period T1
  genbea-report generate --year 2024 --annual -f Proyecto=GX -f "PCRs=No definido"
  genbea-report generate --year 2024 --purity optimal,acceptable --purity-bands -o informes`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the workbook files (overrides configuration)")

	root.AddCommand(newCatalogCmd(&dataDir), newGenerateCmd(&dataDir))
	return root
}

func newCatalogCmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the years and periods found in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*dataDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runCatalog(cmd.Context(), newDashboardService(cfg, logger), cmd.OutOrStdout())
		},
	}
}

func newGenerateCmd(dataDir *string) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the PDF report, XLSX export and chart images of a selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.dataDir = *dataDir
			return runGenerate(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.year, "year", "y", "", "year to report (required)")
	f.StringVarP(&opts.period, "period", "p", "", "period file of the year (default: first period)")
	f.BoolVar(&opts.annual, "annual", false, "merge every period file of the year")
	f.StringVarP(&opts.search, "search", "q", "", "case-insensitive substring of the sample identifier")
	f.StringArrayVarP(&opts.filters, "filter", "f", nil, `accepted value of a column as "Columna=valor" (repeatable)`)
	f.StringSliceVar(&opts.purity, "purity", nil, "purity tiers to show (optimal, acceptable, poor)")
	f.StringSliceVar(&opts.concentration, "concentration", nil, "concentration tiers to show (low, medium, high)")
	f.BoolVar(&opts.purityBands, "purity-bands", false, "draw the purity tier bands behind the chart")
	f.BoolVar(&opts.concentrationBands, "concentration-bands", false, "draw the concentration tier bands behind the chart")
	f.StringVarP(&opts.outDir, "out", "o", "informes", "output directory")
	f.BoolVar(&opts.charts, "charts", true, "also write each chart as a PNG file")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

// setup loads configuration and a logger that writes to stderr so stdout
// stays readable.
func setup(dataDir string, stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadOffline()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dataDir != "" {
		cfg.Paths.DataDir = dataDir
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func newDashboardService(cfg *config.Config, logger *slog.Logger) *services.DashboardService {
	discovery := files.NewDiscovery(cfg.Paths.DataDir, cfg.Dataset.FilePrefix)
	cache := dataset.NewCache(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	loader := dataset.NewLoader(dataset.SchemaFrom(cfg.Dataset), cache, dataset.WithLogger(logger))
	return services.NewDashboardService(discovery, loader, cfg, logger)
}

func runCatalog(ctx context.Context, svc *services.DashboardService, stdout io.Writer) error {
	catalog, err := svc.Catalog(ctx)
	if err != nil {
		return err
	}

	for _, g := range catalog.Years {
		fmt.Fprintf(stdout, "%s\t%s\n", g.Year, strings.Join(g.Periods(), ", "))
	}
	return nil
}

// buildRequest turns the flags into a dashboard selection.
func buildRequest(opts *reportOptions) (services.Request, error) {
	req := services.Request{
		Year:               strings.TrimSpace(opts.year),
		Annual:             opts.annual,
		Search:             opts.search,
		PurityBands:        opts.purityBands,
		ConcentrationBands: opts.concentrationBands,
	}
	if !req.Annual {
		req.Period = strings.TrimSpace(opts.period)
	}

	for _, raw := range opts.filters {
		column, value, ok := strings.Cut(raw, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return services.Request{}, fmt.Errorf("invalid filter %q: expected Columna=valor", raw)
		}
		if req.Selections == nil {
			req.Selections = make(map[string][]string)
		}
		req.Selections[column] = append(req.Selections[column], strings.TrimSpace(value))
	}

	var err error
	if len(opts.purity) > 0 {
		if req.PurityTiers, err = quality.ParseTiers(quality.Purity, opts.purity); err != nil {
			return services.Request{}, fmt.Errorf("--purity: %w", err)
		}
	}
	if len(opts.concentration) > 0 {
		if req.ConcentrationTiers, err = quality.ParseTiers(quality.Concentration, opts.concentration); err != nil {
			return services.Request{}, fmt.Errorf("--concentration: %w", err)
		}
	}
	return req, nil
}

func runGenerate(ctx context.Context, opts *reportOptions, stdout, stderr io.Writer) error {
	cfg, logger, err := setup(opts.dataDir, stderr)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	req, err := buildRequest(opts)
	if err != nil {
		return err
	}
	if err := customMiddleware.NewValidator(logger).ValidateStruct(req); err != nil {
		return fmt.Errorf("invalid selection: %w", err)
	}

	svc := newDashboardService(cfg, logger)

	view, err := svc.View(ctx, req)
	if err != nil {
		return err
	}
	for _, w := range view.Warnings {
		fmt.Fprintf(stderr, "aviso: %s\n", w.Message)
	}

	artifacts, err := svc.Report(ctx, req)
	if err != nil {
		return err
	}

	outputs := map[string][]byte{
		report.DocumentFileName:    artifacts.Document,
		report.SpreadsheetFileName: artifacts.Spreadsheet,
	}

	if opts.charts {
		images, err := renderCharts(ctx, svc, req, view.Charts)
		if err != nil {
			return err
		}
		for _, img := range images {
			outputs[img.FileName] = img.PNG
		}
	}

	manager := files.NewManager(opts.outDir, logger)
	if err := manager.EnsureDirectory("."); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(outputs)) {
		path, err := manager.WriteFile(name, outputs[name])
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		fmt.Fprintln(stdout, path)
	}

	fmt.Fprintf(stdout, "%s: %d de %d muestras (%d incompletas)\n",
		view.Title, view.Stats.Filtered, view.Stats.Total, view.Stats.Incomplete)
	return nil
}

// renderCharts draws the charts of the view concurrently. The workbook cache
// keeps repeated loads of the same files cheap.
func renderCharts(ctx context.Context, svc *services.DashboardService, req services.Request, infos []services.ChartInfo) ([]*services.ChartImage, error) {
	images := make([]*services.ChartImage, len(infos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i, info := range infos {
		g.Go(func() error {
			img, err := svc.Chart(gctx, req, info.Kind)
			if err != nil {
				return fmt.Errorf("chart %s: %w", info.Kind, err)
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
