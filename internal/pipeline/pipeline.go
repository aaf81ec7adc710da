package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"facefortune/internal/analysis"
	"facefortune/internal/types"
)

// Stage is one ordered step of the analysis pipeline. Transitions are
// strictly linear; there is no branching, parallelism, or re-entry.
type Stage int

const (
	StageIdle Stage = iota
	StageExtracting
	StageMiniAnalyzing
	StageScoring
	StagePersisting
	StageCompleted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageExtracting:
		return "extracting"
	case StageMiniAnalyzing:
		return "mini-analyzing"
	case StageScoring:
		return "scoring"
	case StagePersisting:
		return "persisting"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ErrAlreadyRun is returned when a second run is attempted against the same
// orchestrator instance. The run-once latch makes the second call a no-op.
var ErrAlreadyRun = errors.New("analysis pipeline already ran for this instance")

// Failure is the terminal error of a pipeline run. Reason is the
// machine-readable tag carried by the failure observability event.
type Failure struct {
	Reason types.FailureReason
	Stage  Stage
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("pipeline %s at %s stage: %v", f.Reason, f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// AnalysisClient is the remote three-stage analysis surface.
type AnalysisClient interface {
	ExtractFeatures(ctx context.Context, photo types.Photo) (types.FeatureSet, error)
	AnalyzeMini(ctx context.Context, features types.FeatureSet) (types.MiniAnalysis, error)
	AnalyzeScore(ctx context.Context, mini types.MiniAnalysis) (types.ScoreAnalysis, error)
}

// ReportCreator persists the merged result. Creation is atomic: either a
// full report document exists afterwards, or none does.
type ReportCreator interface {
	CreateReport(ctx context.Context, draft types.ReportDraft) (types.Report, error)
}

// BackupChannel mirrors the finished result into session-scoped storage so
// the analysis screen can survive a reload. Writes are best-effort.
type BackupChannel interface {
	WriteResult(report types.Report) error
}

// EventSink receives the pipeline's observability events.
type EventSink interface {
	Track(event string, props map[string]any)
}

// Config wires an Orchestrator. Backup and Events may be nil.
type Config struct {
	Client AnalysisClient
	Store  ReportCreator
	Backup BackupChannel
	Events EventSink
	Retry  RetryPolicy
}

// Orchestrator drives the ordered sequence of remote calls, holds the
// transient run state, and decides the terminal outcome. Each instance runs
// to completion at most once.
type Orchestrator struct {
	client AnalysisClient
	store  ReportCreator
	backup BackupChannel
	events EventSink
	retry  RetryPolicy

	// OnStage, if set, is invoked as each stage begins (and once for the
	// terminal stage). Used by the CLI to drive its progress bar.
	OnStage func(Stage)

	started atomic.Bool

	mu      sync.Mutex
	stage   Stage
	lastErr error
}

// New builds an orchestrator in the Idle state.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		client: cfg.Client,
		store:  cfg.Store,
		backup: cfg.Backup,
		events: cfg.Events,
		retry:  cfg.Retry,
		stage:  StageIdle,
	}
	if o.events == nil {
		o.events = nopSink{}
	}
	return o
}

type nopSink struct{}

func (nopSink) Track(string, map[string]any) {}

// Stage reports the current pipeline stage.
func (o *Orchestrator) Stage() Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stage
}

// Err reports the terminal failure, if any.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Run executes the full pipeline: extraction, mini analysis, scoring,
// persistence, session backup. Any stage failure is fatal to the run; partial
// results are discarded and no report is created.
func (o *Orchestrator) Run(ctx context.Context, photo types.Photo) (types.Report, error) {
	// A missing photo is an entry precondition, not a stage failure: the
	// caller is routed back to the entry point and the latch stays open.
	if photo.Empty() {
		err := &Failure{
			Reason: types.ReasonMissingInput,
			Stage:  StageIdle,
			Err:    errors.New("no photo reference present"),
		}
		o.events.Track("analysis_rejected", map[string]any{"reason": string(err.Reason)})
		return types.Report{}, err
	}

	if !o.started.CompareAndSwap(false, true) {
		return types.Report{}, ErrAlreadyRun
	}

	o.events.Track("analysis_started", nil)

	// 1. Feature extraction
	o.setStage(StageExtracting)
	features, err := runStage(ctx, o.retry, func(ctx context.Context) (types.FeatureSet, error) {
		return o.client.ExtractFeatures(ctx, photo)
	})
	if err != nil {
		if errors.Is(err, analysis.ErrNoFace) {
			return types.Report{}, o.fail(StageExtracting, types.ReasonNoFace, err)
		}
		return types.Report{}, o.fail(StageExtracting, types.ReasonRemote, err)
	}

	// 2. Mini analysis (detail1..3)
	o.setStage(StageMiniAnalyzing)
	mini, err := runStage(ctx, o.retry, func(ctx context.Context) (types.MiniAnalysis, error) {
		return o.client.AnalyzeMini(ctx, features)
	})
	if err != nil {
		return types.Report{}, o.fail(StageMiniAnalyzing, types.ReasonRemote, err)
	}

	// 3. Score + summary
	o.setStage(StageScoring)
	score, err := runStage(ctx, o.retry, func(ctx context.Context) (types.ScoreAnalysis, error) {
		return o.client.AnalyzeScore(ctx, mini)
	})
	if err != nil {
		return types.Report{}, o.fail(StageScoring, types.ReasonRemote, err)
	}

	// 4. Durable persistence. Never retried: the store either creates the
	// full document or nothing.
	o.setStage(StagePersisting)
	report, err := o.store.CreateReport(ctx, types.ReportDraft{
		Features: features,
		Mini:     mini,
		Score:    score,
	})
	if err != nil {
		return types.Report{}, o.fail(StagePersisting, types.ReasonPersistence, err)
	}

	// 5. Session backup is best-effort; the durable report already exists.
	if o.backup != nil {
		if berr := o.backup.WriteResult(report); berr != nil {
			o.events.Track("session_backup_failed", map[string]any{"error": berr.Error()})
		}
	}

	o.setStage(StageCompleted)
	o.events.Track("analysis_completed", map[string]any{"report_id": report.ID})
	return report, nil
}

func (o *Orchestrator) setStage(s Stage) {
	o.mu.Lock()
	o.stage = s
	o.mu.Unlock()
	if o.OnStage != nil {
		o.OnStage(s)
	}
}

func (o *Orchestrator) fail(at Stage, reason types.FailureReason, err error) error {
	f := &Failure{Reason: reason, Stage: at, Err: err}
	o.mu.Lock()
	o.stage = StageFailed
	o.lastErr = f
	o.mu.Unlock()
	if o.OnStage != nil {
		o.OnStage(StageFailed)
	}
	o.events.Track("analysis_failed", map[string]any{
		"reason":  string(reason),
		"message": err.Error(),
	})
	return f
}
