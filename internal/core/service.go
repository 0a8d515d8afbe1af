package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/tessa/internal/config"
	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/JonMunkholm/tessa/internal/history"
	"github.com/JonMunkholm/tessa/internal/logging"
	"github.com/JonMunkholm/tessa/internal/normalize"
	"github.com/JonMunkholm/tessa/internal/profile"
	"github.com/JonMunkholm/tessa/internal/source"
	"github.com/JonMunkholm/tessa/internal/sink"
	"golang.org/x/sync/errgroup"
)

// RecordTimeout bounds writing one run history entry.
var RecordTimeout = 5 * time.Second

// Service runs registered import routines.
type Service struct {
	inputDir   string
	outputDir  string
	sources    map[string]config.SourceOverride
	parallel   bool
	maxWorkers int

	writer   *sink.Writer
	recorder history.Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder records every finished routine with r.
func WithRecorder(r history.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithWriter replaces the default Parquet writer.
func WithWriter(w *sink.Writer) Option {
	return func(s *Service) { s.writer = w }
}

// WithParallel runs routines concurrently, at most workers at a time.
// A non-positive workers runs them sequentially.
func WithParallel(workers int) Option {
	return func(s *Service) {
		s.parallel = workers > 0
		s.maxWorkers = workers
	}
}

// NewService creates a Service from cfg.
func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		inputDir:   cfg.Data.InputDir,
		outputDir:  cfg.Data.OutputDir,
		sources:    cfg.Sources,
		parallel:   cfg.Run.Parallel,
		maxWorkers: cfg.Run.MaxWorkers,
		writer:     sink.NewWriter(),
		recorder:   history.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTables returns information about all registered tables in run order.
func (s *Service) ListTables() []TableInfo {
	defs := All()
	infos := make([]TableInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// InputPath returns the file a table is read from after source overrides.
func (s *Service) InputPath(def TableDefinition) string {
	p := def.Info.Input
	if o, ok := s.sources[def.Info.Key]; ok && o.Path != "" {
		p = o.Path
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.inputDir, p)
}

// OutputPath returns the file a table is written to.
func (s *Service) OutputPath(def TableDefinition) string {
	return filepath.Join(s.outputDir, def.Info.Output)
}

func (s *Service) loadOptions(def TableDefinition) source.Options {
	opts := def.Load
	if o, ok := s.sources[def.Info.Key]; ok {
		if o.Sheet != nil {
			opts.Sheet = *o.Sheet
		}
		if o.Encoding != "" {
			opts.Encoding = o.Encoding
		}
	}
	return opts
}

// Import runs the routine registered under key. The result is returned even
// when the routine fails.
func (s *Service) Import(ctx context.Context, key string) (*ImportResult, error) {
	def, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, key)
	}
	res := s.run(ctx, def)
	return &res, res.Err
}

// ImportAll runs the routines for keys, or every registered routine when keys
// is empty, in run order. A failing routine does not stop the others; all
// failures are returned joined.
func (s *Service) ImportAll(ctx context.Context, keys ...string) ([]ImportResult, error) {
	defs, err := Resolve(keys...)
	if err != nil {
		return nil, err
	}

	results := make([]ImportResult, len(defs))
	if s.parallel && len(defs) > 1 {
		var g errgroup.Group
		g.SetLimit(s.maxWorkers)
		for i, def := range defs {
			g.Go(func() error {
				results[i] = s.run(ctx, def)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, def := range defs {
			results[i] = s.run(ctx, def)
		}
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	logging.FromContext(ctx).Info("run finished",
		"tables", len(results),
		"failed", len(errs),
		"parallel", s.parallel && len(defs) > 1,
	)
	return results, errors.Join(errs...)
}

func (s *Service) run(ctx context.Context, def TableDefinition) ImportResult {
	ctx = logging.WithFields(ctx, "table", def.Info.Key)
	ctx, runID := logging.WithRun(ctx)
	log := logging.FromContext(ctx)

	started := time.Now()
	res := ImportResult{
		RunID:  runID,
		Key:    def.Info.Key,
		Input:  s.InputPath(def),
		Output: s.OutputPath(def),
	}

	log.Info("import started", "input", res.Input)
	res.Err = s.pipeline(ctx, def, &res)
	res.Duration = time.Since(started)

	if res.Err != nil {
		log.Error("import failed",
			"error", res.Err,
			"code", MapError(res.Err).Code,
			"duration", res.Duration,
		)
	} else {
		log.Info("import finished",
			"output", res.Output,
			"rows_in", res.RowsIn,
			"rows_out", res.RowsOut,
			"columns", res.Columns,
			"nulls", res.Nulls,
			"duration", res.Duration,
		)
	}

	s.record(ctx, res, started)
	return res
}

func (s *Service) pipeline(ctx context.Context, def TableDefinition, res *ImportResult) error {
	log := logging.FromContext(ctx)
	fail := func(stage Stage, err error) error {
		return &ImportError{Table: def.Info.Key, Stage: stage, Err: err}
	}

	ds, err := source.Load(ctx, res.Input, s.loadOptions(def))
	if err != nil {
		return fail(StageLoad, err)
	}
	res.RowsIn = ds.NumRows()
	log.Info("loaded", "rows", ds.NumRows(), "columns", ds.NumColumns())

	rep, err := def.Plan.Apply(ds)
	if err != nil {
		return fail(StageReconcile, err)
	}
	log.Debug("reconciled",
		"renamed", len(rep.Renamed),
		"dropped", rep.Dropped,
		"duplicates", rep.Duplicates,
		"percent", rep.Classified[frame.KindPercent],
		"numeric", rep.Classified[frame.KindNumeric],
	)
	if len(rep.Duplicates) > 0 {
		log.Warn("dropped duplicate columns", "columns", rep.Duplicates)
	}
	if len(rep.Absent) > 0 {
		log.Warn("expected columns not found; check the header for renamed identifiers",
			"columns", rep.Absent)
	}

	if def.Filter != nil {
		before := ds.NumRows()
		if ds, err = def.Filter(ds); err != nil {
			return fail(StageFilter, err)
		}
		log.Info("filtered rows", "kept", ds.NumRows(), "dropped", before-ds.NumRows())
	}

	if err := ctx.Err(); err != nil {
		return fail(StageCast, err)
	}
	if len(def.IntCasts) > 0 {
		if err := normalize.CastInt(ds, def.IntCasts...); err != nil {
			return fail(StageCast, err)
		}
	}
	if len(def.NumericCasts) > 0 {
		stats, err := normalize.Coerce(ds, frame.KindNumeric, def.NumericCasts...)
		if err != nil {
			return fail(StageCast, err)
		}
		logStats(log, "cast", stats)
	}

	stats, err := normalize.Dataset(ds)
	if err != nil {
		return fail(StageNormalize, err)
	}
	logStats(log, "normalized", stats)

	summary := profile.Dataset(ds)
	summary.Log(log)
	res.RowsOut = summary.Rows
	res.Columns = len(summary.Columns)
	res.Nulls = summary.Nulls()

	if err := s.writer.Write(ctx, ds, res.Output); err != nil {
		return fail(StageWrite, err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, res ImportResult, started time.Time) {
	e := history.Entry{
		RunID:     res.RunID,
		TableKey:  res.Key,
		Input:     res.Input,
		Output:    res.Output,
		Status:    history.StatusSucceeded,
		RowsIn:    res.RowsIn,
		RowsOut:   res.RowsOut,
		Columns:   res.Columns,
		Nulls:     res.Nulls,
		StartedAt: started,
		Duration:  res.Duration,
	}
	if res.Err != nil {
		e.Status = history.StatusFailed
		e.Error = res.Err.Error()
	}

	// A cancelled run is still recorded.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RecordTimeout)
	defer cancel()
	if err := s.recorder.Record(rctx, e); err != nil {
		logging.FromContext(ctx).Warn("record run history failed", "error", err)
	}
}

func logStats(log *slog.Logger, msg string, stats map[string]normalize.Stats) {
	var total normalize.Stats
	for _, st := range stats {
		total.Parsed += st.Parsed
		total.Empty += st.Empty
		total.Unparsable += st.Unparsable
	}
	log.Info(msg,
		"columns", len(stats),
		"parsed", total.Parsed,
		"empty", total.Empty,
		"unparsable", total.Unparsable,
	)
}
