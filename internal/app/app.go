// Package app wires loading, aggregation, rendering and the optional
// exports into the pipeline both dashboard commands run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scan-report-dashboard/internal/archive"
	"scan-report-dashboard/internal/config"
	"scan-report-dashboard/internal/console"
	"scan-report-dashboard/internal/export"
	"scan-report-dashboard/internal/promfile"
	"scan-report-dashboard/internal/publish"
	"scan-report-dashboard/internal/render"
	"scan-report-dashboard/internal/report"
	"scan-report-dashboard/internal/scans"
)

// Options are the per-run settings, usually taken from flags.
type Options struct {
	Input           string
	Output          string
	JSONPath        string
	CSVDir          string
	Archive         bool
	DBSchema        string
	DBTag           string
	Publish         bool
	MetricsTextfile string
	Quiet           bool
	// Now overrides the generation timestamp.
	Now time.Time
}

// Result is what a successful run produced.
type Result struct {
	RunID   uuid.UUID
	Report  *report.Report
	Load    scans.LoadResult
	Outputs []string
}

type Runner struct {
	cfg    *config.Config
	log    *slog.Logger
	stdout io.Writer
}

func NewRunner(cfg *config.Config, log *slog.Logger, stdout io.Writer) *Runner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if stdout == nil {
		stdout = io.Discard
	}
	return &Runner{cfg: cfg, log: log, stdout: stdout}
}

// NewLogger is the stderr text logger used by the commands.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Run executes the pipeline for variant v. The HTML dashboard is always
// written; every other output only when asked for, and then its failure
// fails the run.
func (rn *Runner) Run(ctx context.Context, v report.Variant, opts Options) (*Result, error) {
	if opts.Input == "" {
		opts.Input = v.DefaultInput
	}
	if opts.Output == "" {
		opts.Output = v.DefaultOutput
	}
	log := rn.log.With("variant", v.Name)
	started := time.Now()

	loaded, err := scans.Load(opts.Input, v.Schema, scans.Options{
		ReferenceYear: rn.cfg.ReferenceYear,
		Location:      rn.cfg.Location(),
	})
	if err != nil {
		return nil, err
	}
	log.Info("loaded input", "input", opts.Input, "rows", loaded.Rows, "records", len(loaded.Records), "blank_rows", loaded.BlankRows)
	for col, n := range loaded.Nulled {
		log.Debug("values treated as missing", "column", string(col), "count", n)
	}

	r := report.Build(v, loaded.Records, report.Options{
		Title:         rn.cfg.Title,
		GeneratedAt:   opts.Now,
		ReferenceYear: rn.cfg.ReferenceYear,
		Location:      rn.cfg.Location(),
	})
	log.Debug("aggregated", "metrics", len(r.Metrics), "tables", len(r.Tables), "charts", len(r.Charts))

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}
	if err := renderer.WriteFile(opts.Output, r); err != nil {
		return nil, fmt.Errorf("write dashboard: %w", err)
	}
	log.Info("wrote dashboard", "output", opts.Output)

	res := &Result{RunID: uuid.New(), Report: r, Load: loaded, Outputs: []string{opts.Output}}
	var artifacts [][2]string

	if opts.JSONPath != "" {
		if err := export.WriteJSON(opts.JSONPath, r); err != nil {
			return nil, fmt.Errorf("write JSON export: %w", err)
		}
		res.Outputs = append(res.Outputs, opts.JSONPath)
		artifacts = append(artifacts, [2]string{"JSON export", opts.JSONPath})
		log.Info("wrote JSON export", "path", opts.JSONPath)
	}

	if opts.CSVDir != "" {
		paths, err := export.WriteTablesCSV(opts.CSVDir, r)
		if err != nil {
			return nil, fmt.Errorf("write CSV exports: %w", err)
		}
		artifacts = append(artifacts, [2]string{"CSV exports", fmt.Sprintf("%d files in %s", len(paths), opts.CSVDir)})
		log.Info("wrote CSV exports", "dir", opts.CSVDir, "files", len(paths))
	}

	if opts.Archive {
		runID, previous, err := rn.archive(ctx, r, loaded, opts)
		if err != nil {
			return nil, fmt.Errorf("archive run: %w", err)
		}
		res.RunID = runID
		artifacts = append(artifacts, [2]string{"Archived run", runID.String()})
		if previous != nil {
			artifacts = append(artifacts, [2]string{"Previous run", previousRun(*previous)})
		}
	}

	if opts.Publish {
		urls, err := rn.publish(ctx, v.Name, res.RunID.String(), res.Outputs)
		if err != nil {
			return nil, fmt.Errorf("publish: %w", err)
		}
		for _, u := range urls {
			artifacts = append(artifacts, [2]string{"Published", u})
			log.Info("published", "url", u)
		}
	}

	textfile := opts.MetricsTextfile
	if textfile == "" {
		textfile = rn.cfg.MetricsTextfile
	}
	if textfile != "" {
		if err := promfile.Write(textfile, r, loaded.Rows); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, [2]string{"Metrics textfile", textfile})
		log.Info("wrote metrics textfile", "path", textfile)
	}

	log.Info("done", "run_id", res.RunID, "duration", time.Since(started).Round(time.Millisecond))

	if !opts.Quiet {
		console.Print(rn.stdout, console.Summary{
			Input:     opts.Input,
			Output:    opts.Output,
			Rows:      loaded.Rows,
			BlankRows: loaded.BlankRows,
			Nulled:    loaded.Nulled,
			Report:    r,
			Artifacts: artifacts,
		})
	}
	return res, nil
}

// archive stores the run and returns its id plus the run archived before
// it, if any.
func (rn *Runner) archive(ctx context.Context, r *report.Report, loaded scans.LoadResult, opts Options) (uuid.UUID, *archive.Run, error) {
	schema := rn.cfg.Archive.Schema
	if opts.DBSchema != "" {
		schema = opts.DBSchema
	}
	tag := rn.cfg.Archive.Tag
	if opts.DBTag != "" {
		tag = opts.DBTag
	}

	a, err := archive.Open(ctx, archive.Config{URL: rn.cfg.DatabaseURL(), Schema: schema})
	if err != nil {
		return uuid.Nil, nil, err
	}
	defer a.Close()

	runID, err := a.Store(ctx, r, archive.Meta{
		InputPath:  opts.Input,
		OutputPath: opts.Output,
		BlankRows:  loaded.BlankRows,
		Tag:        tag,
	})
	if err != nil {
		return uuid.Nil, nil, err
	}
	rn.log.Info("archived run", "run_id", runID, "schema", a.Schema())

	runs, err := a.RecentRuns(ctx, r.Variant, 2)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("list recent runs: %w", err)
	}
	for i := range runs {
		if runs[i].ID != runID {
			return runID, &runs[i], nil
		}
	}
	return runID, nil, nil
}

func previousRun(run archive.Run) string {
	return fmt.Sprintf("%d scans, generated %s", run.TotalScans, run.GeneratedAt.UTC().Format(time.RFC3339))
}

func (rn *Runner) publish(ctx context.Context, variant, runID string, paths []string) ([]string, error) {
	p := rn.cfg.Publish
	if !p.Enabled() {
		return nil, errors.New("publish.endpoint and publish.bucket must be set in the config file")
	}
	store, err := publish.New(ctx, publish.Config{
		Endpoint:  p.Endpoint,
		Region:    p.Region,
		Bucket:    p.Bucket,
		AccessKey: p.AccessKey,
		SecretKey: p.SecretKey,
		UseSSL:    p.UseSSL,
		Prefix:    p.Prefix,
	})
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, path := range paths {
		u, err := store.Upload(ctx, path, variant, runID)
		if err != nil {
			return urls, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}
