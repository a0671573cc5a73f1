// Command etvreport loads the intervention dataset, joins it with the
// municipal boundaries and writes the per-municipality table as CSV, XLSX
// and GeoJSON without starting the dashboard server.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/larrynino/spatial-public-health/internal/config"
	"github.com/larrynino/spatial-public-health/internal/errors"
	"github.com/larrynino/spatial-public-health/internal/exporter"
	"github.com/larrynino/spatial-public-health/internal/infrastructure"
	"github.com/larrynino/spatial-public-health/internal/pipeline"
	"github.com/larrynino/spatial-public-health/internal/services"
	"github.com/larrynino/spatial-public-health/internal/validation"
	"github.com/larrynino/spatial-public-health/pkg/contracts"
	"github.com/larrynino/spatial-public-health/pkg/contracts/domain"
)

const defaultBasename = "intervenciones_etv"

type options struct {
	configFile string
	csvPath    string
	shpPath    string
	outDir     string
	formats    string
	basename   string
	logLevel   string
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("Report generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("etvreport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "config file (defaults to the dashboard config search path)")
	fs.StringVar(&opts.csvPath, "csv", "", "intervention dataset (overrides data.csv_path)")
	fs.StringVar(&opts.shpPath, "shp", "", "municipal boundaries, .shp or .geojson (overrides data.boundary_path)")
	fs.StringVar(&opts.outDir, "out", "", "output directory (overrides data.export_dir)")
	fs.StringVar(&opts.formats, "format", "csv,xlsx", "comma separated formats: csv, xlsx, geojson or all")
	fs.StringVar(&opts.basename, "name", defaultBasename, "output file name without extension")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (overrides logging.level)")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// loadConfig applies flag overrides on top of the dashboard configuration
func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configFile != "" {
		cfg, err = config.LoadFrom(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.csvPath != "" {
		cfg.Data.CSVPath = opts.csvPath
	}
	if opts.shpPath != "" {
		cfg.Data.BoundaryPath = opts.shpPath
	}
	if opts.outDir != "" {
		cfg.Data.ExportDir = opts.outDir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	formats, err := exporter.ParseFormats(opts.formats)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg.Logging.Output = "console"
	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	report := validation.NewFileValidator(logger).ValidateInputs(cfg.Data.CSVPath, cfg.Data.BoundaryPath, cfg.Data.ExportDir)
	if report.Dataset != nil {
		return errors.NewDataSourceError("dataset is not usable", report.Dataset)
	}
	if report.ExportDir != nil {
		return report.ExportDir
	}

	cache, err := pipeline.NewCache(pipeline.OptionsFromConfig(cfg.Data), logger, nil)
	if err != nil {
		return err
	}
	res, err := cache.Get(ctx)
	if err != nil {
		return err
	}
	join := res.Geo
	if !res.HasGeo() {
		join = nil
	}
	if res.GeoErr != nil {
		logger.WarnContext(ctx, "Boundaries unavailable; GeoJSON export disabled",
			slog.String("error", res.GeoErr.Error()))
	}

	rows, err := services.NewDashboardService(cache, logger).Rows(ctx)
	if err != nil {
		return err
	}

	printSummary(stdout, res, len(rows))

	exp := exporter.NewExporter(cfg.Data.ExportDir, logger, nil)
	paths, err := exp.Export(ctx, opts.basename, formats, rows, join)
	for _, p := range paths {
		fmt.Fprintln(stdout, p)
	}
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Report generated",
		slog.Int("records", res.Dataset.Len()),
		slog.Int("municipalities", len(rows)),
		slog.String("fingerprint", res.Fingerprint.Short()))
	return nil
}

// printSummary writes the headline totals of the loaded dataset
func printSummary(w io.Writer, res *pipeline.Result, municipalities int) {
	totals := res.Dataset.Totals()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "registros\t%d\n", res.Dataset.Len())
	fmt.Fprintf(tw, "municipios\t%d\n", municipalities)
	for _, col := range []domain.Column{domain.ColTotalInterventions, domain.ColPopTotal} {
		fmt.Fprintf(tw, "%s\t%s\n", col.Key(), strconv.FormatFloat(totals.Get(col), 'f', -1, 64))
	}
	for _, col := range domain.ColumnsInGroup(domain.GroupCases) {
		fmt.Fprintf(tw, "%s\t%s\n", col.Key(), strconv.FormatFloat(totals.Get(col), 'f', -1, 64))
	}
	tw.Flush()
}
