package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"scan-report-dashboard/internal/config"
	"scan-report-dashboard/internal/report"
)

// stderr receives logs and flag errors; tests swap it.
var stderr io.Writer = os.Stderr

// Main parses args for the named variant's command and runs it. It returns
// flag.ErrHelp when -h was requested.
func Main(ctx context.Context, variant string, args []string, stdout io.Writer) error {
	v, err := report.Lookup(variant)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet(v.Name+"-dashboard", flag.ContinueOnError)
	fs.SetOutput(stderr)

	inputPath := fs.String("input", v.DefaultInput, "Path to input CSV")
	outputPath := fs.String("output", v.DefaultOutput, "Path to output HTML")
	configPath := fs.String("config", "", "Optional YAML config file")
	jsonOut := fs.String("json", "", "Optional JSON export path")
	csvDir := fs.String("csv-dir", "", "Optional directory for per-table CSV exports")
	dbEnabled := fs.Bool("db", false, "Store the run in Postgres (archive.database_url, SCAN_REPORT_DB_URL or DATABASE_URL)")
	dbSchema := fs.String("db-schema", "", fmt.Sprintf("Postgres schema for archive tables (default %q)", config.DefaultSchema))
	dbTag := fs.String("db-tag", "", "Optional label for this run")
	publishEnabled := fs.Bool("publish", false, "Upload outputs to the bucket configured under publish")
	metricsFile := fs.String("metrics-textfile", "", "Optional Prometheus textfile path")
	quiet := fs.Bool("quiet", false, "Skip the console summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	runner := NewRunner(cfg, NewLogger(stderr, cfg.Level()), stdout)
	_, err = runner.Run(ctx, v, Options{
		Input:           *inputPath,
		Output:          *outputPath,
		JSONPath:        *jsonOut,
		CSVDir:          *csvDir,
		Archive:         *dbEnabled,
		DBSchema:        *dbSchema,
		DBTag:           *dbTag,
		Publish:         *publishEnabled,
		MetricsTextfile: *metricsFile,
		Quiet:           *quiet,
	})
	return err
}
