// Package batch runs the full analysis pipeline over a directory of
// statement workbooks with per-file error isolation: one broken workbook
// fails on its own instead of aborting the rest of the run.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ledgerlens/ledgerlens/internal/analysis"
	"github.com/ledgerlens/ledgerlens/internal/ingest"
	"github.com/ledgerlens/ledgerlens/internal/report"
)

// ErrSkipped marks files that were never processed because an earlier
// failure stopped the run.
var ErrSkipped = errors.New("skipped after earlier failure")

// Options control file discovery and scheduling.
type Options struct {
	Pattern         string
	OutputDir       string
	MaxWorkers      int
	ContinueOnError bool
}

func DefaultOptions() Options {
	return Options{
		Pattern:         "*.xlsx",
		MaxWorkers:      4,
		ContinueOnError: true,
	}
}

// FileResult records the outcome for a single workbook.
type FileResult struct {
	Path          string
	OutputPath    string
	RunID         string
	Duration      time.Duration
	AccountCount  int
	VarianceCount int
	AnomalyCount  int
	Err           error
}

func (r FileResult) Succeeded() bool { return r.Err == nil }

// Result aggregates one batch run. Files holds one entry per discovered
// workbook in path order, failures included.
type Result struct {
	OutputDir string
	Files     []FileResult
	Duration  time.Duration
}

func (r *Result) Successful() int {
	n := 0
	for _, f := range r.Files {
		if f.Succeeded() {
			n++
		}
	}
	return n
}

func (r *Result) Failed() int { return len(r.Files) - r.Successful() }

// TotalAnomalies sums anomaly counts across successful files.
func (r *Result) TotalAnomalies() int {
	n := 0
	for _, f := range r.Files {
		if f.Succeeded() {
			n += f.AnomalyCount
		}
	}
	return n
}

// Processor fans a directory of workbooks out over a worker pool and runs
// the load/analyze/report pipeline on each. The loader and engine are
// shared across workers; both are read-only after construction.
type Processor struct {
	loader *ingest.Loader
	engine *analysis.Engine
	opts   Options
}

func NewProcessor(loader *ingest.Loader, engine *analysis.Engine, opts Options) (*Processor, error) {
	if opts.Pattern == "" {
		opts.Pattern = "*.xlsx"
	}
	if opts.MaxWorkers < 1 {
		return nil, fmt.Errorf("batch: max workers must be at least 1, got %d", opts.MaxWorkers)
	}
	return &Processor{loader: loader, engine: engine, opts: opts}, nil
}

// ProcessDirectory analyzes every workbook under dir matching the
// configured pattern and writes one report per file into the output
// directory. With ContinueOnError set, failures are recorded per file and
// the returned error is nil; otherwise the run stops at the first failure
// and that failure is returned alongside the partial result.
func (p *Processor) ProcessDirectory(dir string) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("batch: input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("batch: %s is not a directory", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, p.opts.Pattern))
	if err != nil {
		return nil, fmt.Errorf("batch: bad pattern %q: %w", p.opts.Pattern, err)
	}
	sort.Strings(paths)

	outDir := p.opts.OutputDir
	if outDir == "" {
		outDir = filepath.Join(dir, "batch_output")
	}

	if len(paths) == 0 {
		log.Warn().Str("dir", dir).Str("pattern", p.opts.Pattern).Msg("no workbooks matched")
		return &Result{OutputDir: outDir}, nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("batch: output directory: %w", err)
	}

	log.Info().Str("dir", dir).Int("files", len(paths)).Int("workers", p.opts.MaxWorkers).Msg("batch run started")
	return p.processFiles(paths, outDir)
}

func (p *Processor) processFiles(paths []string, outDir string) (*Result, error) {
	start := time.Now()
	results := make([]FileResult, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	var stopped atomic.Bool

	workers := p.opts.MaxWorkers
	if workers > len(paths) {
		workers = len(paths)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if stopped.Load() {
					results[i] = FileResult{Path: paths[i], Err: ErrSkipped}
					continue
				}
				results[i] = p.processFile(paths[i], outDir)
				if results[i].Err != nil && !p.opts.ContinueOnError {
					stopped.Store(true)
				}
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	res := &Result{OutputDir: outDir, Files: results, Duration: time.Since(start)}
	log.Info().
		Int("total", len(res.Files)).
		Int("succeeded", res.Successful()).
		Int("failed", res.Failed()).
		Dur("elapsed", res.Duration).
		Msg("batch run complete")

	if !p.opts.ContinueOnError {
		for _, fr := range res.Files {
			if fr.Err != nil && !errors.Is(fr.Err, ErrSkipped) {
				return res, fmt.Errorf("batch stopped on %s: %w", fr.Path, fr.Err)
			}
		}
	}
	return res, nil
}

func (p *Processor) processFile(path, outDir string) FileResult {
	start := time.Now()
	fr := FileResult{Path: path, RunID: uuid.New().String()}

	snap, err := p.loader.Load(path)
	if err != nil {
		fr.Err = fmt.Errorf("load: %w", err)
		fr.Duration = time.Since(start)
		log.Error().Err(err).Str("file", path).Msg("workbook failed to load")
		return fr
	}

	summary, variances, err := p.engine.RunDetailed(snap)
	if err != nil {
		fr.Err = fmt.Errorf("analyze: %w", err)
		fr.Duration = time.Since(start)
		log.Error().Err(err).Str("file", path).Msg("analysis failed")
		return fr
	}

	out := outputName(path, outDir)
	if err := report.NewWriter(fr.RunID).WriteExcel(out, summary, variances); err != nil {
		fr.Err = fmt.Errorf("report: %w", err)
		fr.Duration = time.Since(start)
		log.Error().Err(err).Str("file", path).Msg("report write failed")
		return fr
	}

	fr.OutputPath = out
	fr.AccountCount = summary.TotalAccounts
	fr.VarianceCount = len(variances)
	fr.AnomalyCount = len(summary.Anomalies)
	fr.Duration = time.Since(start)
	log.Info().
		Str("file", path).
		Str("run_id", fr.RunID).
		Int("anomalies", fr.AnomalyCount).
		Dur("elapsed", fr.Duration).
		Msg("workbook processed")
	return fr
}

// outputName derives the per-file report path from the input name, so
// statements_q2.xlsx produces statements_q2_report.xlsx.
func outputName(input, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, base+"_report.xlsx")
}
