// Package pipeline provides the high-level orchestration for one ETL run.
//
// A run walks a fixed state machine: Idle -> Extracting -> Validating ->
// Scoring -> Categorizing -> Loading -> terminal. Record-level transforms
// are pure and run in parallel across a worker pool; the only serialization
// point is the final atomic batch load. Invalid records are tallied and
// dropped, never fatal; source and sink failures always fail the run. The
// pipeline never retries on its own.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/honey-quality-etl/internal/categorize"
	"github.com/jonathan/honey-quality-etl/internal/config"
	"github.com/jonathan/honey-quality-etl/internal/extract"
	"github.com/jonathan/honey-quality-etl/internal/monitoring"
	"github.com/jonathan/honey-quality-etl/internal/scoring"
	"github.com/jonathan/honey-quality-etl/internal/sink"
	"github.com/jonathan/honey-quality-etl/internal/types"
	"github.com/jonathan/honey-quality-etl/internal/validation"
)

// defaultWorkers bounds the transform pool when the config does not set one.
const defaultWorkers = 8

// ProgressEvent represents a progress update during pipeline execution.
type ProgressEvent struct {
	State   State  `json:"state"`
	Message string `json:"message"`
}

// ProgressCallback is called as the pipeline moves through its states.
type ProgressCallback func(event ProgressEvent)

// Options holds the collaborators and configuration for one pipeline.
type Options struct {
	Config     config.Config
	Source     extract.Source
	Sink       sink.Sink
	BatchKey   string
	SourcePath string // recorded in the run report
	Metrics    *monitoring.Metrics
	OnProgress ProgressCallback
}

// Pipeline coordinates extract -> validate -> score -> categorize -> load
// over one batch of records.
type Pipeline struct {
	opts        Options
	scorer      *scoring.Scorer
	categorizer *categorize.Categorizer
	workers     int

	mu    sync.Mutex
	state State
}

// New validates configuration and wiring, then constructs a pipeline. A
// configuration error here is fatal: the run must never start extracting
// with inconsistent thresholds or weights.
func New(opts Options) (*Pipeline, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline: source is required")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("pipeline: sink is required")
	}
	if opts.BatchKey == "" {
		return nil, fmt.Errorf("pipeline: batch key is required")
	}

	workers := opts.Config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Pipeline{
		opts:        opts,
		scorer:      scoring.NewScorer(opts.Config.Rules, opts.Config.Weights),
		categorizer: categorize.NewCategorizer(opts.Config.Categories, opts.Config.Rules),
		workers:     workers,
		state:       StateIdle,
	}, nil
}

// State returns the pipeline's current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run executes one complete pass and always returns a finalized run report,
// regardless of terminal state. The returned error is non-nil exactly when
// the report status is Failed.
func (p *Pipeline) Run(ctx context.Context) (*types.RunReport, error) {
	report := &types.RunReport{
		RunID:      uuid.New(),
		SourcePath: p.opts.SourcePath,
		BatchKey:   p.opts.BatchKey,
		Rejections: make(map[string]int),
		StartedAt:  time.Now().UTC(),
	}

	err := p.run(ctx, report)
	report.FinishedAt = time.Now().UTC()

	if err != nil {
		report.Status = types.RunFailed
		report.FailureCause = err.Error()
		p.setState(StateFailed)
	} else if report.Invalid > 0 {
		report.Status = types.RunPartiallySucceeded
		p.setState(StatePartiallySucceeded)
	} else {
		report.Status = types.RunSucceeded
		p.setState(StateSucceeded)
	}

	if p.opts.Metrics != nil {
		p.opts.Metrics.ObserveRun(report)
	}
	return report, err
}

// run drives the non-terminal states. All failure paths return an error for
// Run to fold into the report.
func (p *Pipeline) run(ctx context.Context, report *types.RunReport) error {
	p.setState(StateExtracting)
	p.emit(StateExtracting, fmt.Sprintf("extracting records from %s", p.opts.SourcePath))

	raw, err := p.opts.Source.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	report.Extracted = len(raw)

	p.setState(StateValidating)
	p.emit(StateValidating, fmt.Sprintf("validating %d records", len(raw)))

	validated, err := parallelMap(ctx, p.workers, raw, func(rec types.RawRecord) (types.ValidatedRecord, error) {
		return validation.Validate(rec), nil
	})
	if err != nil {
		return err
	}

	valid := make([]types.ValidatedRecord, 0, len(validated))
	for _, rec := range validated {
		if rec.Valid {
			valid = append(valid, rec)
			continue
		}
		report.Invalid++
		for _, reason := range rec.Reasons {
			report.Rejections[reason]++
		}
	}
	report.Valid = len(valid)

	p.setState(StateScoring)
	p.emit(StateScoring, fmt.Sprintf("scoring %d valid records (%d rejected)", report.Valid, report.Invalid))

	scored, err := parallelMap(ctx, p.workers, valid, func(rec types.ValidatedRecord) (types.ScoredRecord, error) {
		return p.scorer.Score(rec), nil
	})
	if err != nil {
		return err
	}
	report.Scored = len(scored)

	p.setState(StateCategorizing)
	p.emit(StateCategorizing, fmt.Sprintf("categorizing %d records", len(scored)))

	categorized, err := parallelMap(ctx, p.workers, scored, func(rec types.ScoredRecord) (types.CategorizedRecord, error) {
		return p.categorizer.Categorize(rec), nil
	})
	if err != nil {
		return err
	}

	p.setState(StateLoading)
	p.emit(StateLoading, fmt.Sprintf("loading batch %s (%d records)", p.opts.BatchKey, len(categorized)))

	if err := p.opts.Sink.Load(ctx, p.opts.BatchKey, categorized); err != nil {
		return fmt.Errorf("batch load failed: %w", err)
	}
	report.Loaded = len(categorized)

	if p.opts.Metrics != nil {
		p.opts.Metrics.ObserveBatchScore(categorized)
	}
	return nil
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Pipeline) emit(state State, message string) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(ProgressEvent{State: state, Message: message})
	}
}

// parallelMap applies a pure transform to independent records on a bounded
// worker pool. Output order matches input order, so results stay
// deterministic regardless of scheduling. A panic inside the transform is
// an invariant violation and surfaces as a run-fatal error rather than
// crashing the process.
func parallelMap[T, R any](ctx context.Context, workers int, in []T, fn func(T) (R, error)) ([]R, error) {
	out := make([]R, len(in))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rec := range in {
		i, rec := i, rec
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &InvariantError{Detail: fmt.Sprintf("%v", r)}
				}
			}()
			out[i], err = fn(rec)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
