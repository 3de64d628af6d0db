package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medgraph/loader/internal/config"
	"github.com/medgraph/loader/internal/graph"
	"github.com/medgraph/loader/internal/progress"
	"github.com/medgraph/loader/internal/schema"
)

// Run and file states exposed by the status API.
const (
	StateNotStarted = "not_started"
	StateRunning    = "running"
	StateCompleted  = "completed"
	StateFailed     = "failed"

	FilePending   = "pending"
	FileRunning   = "running"
	FileCompleted = "completed"
	FileFailed    = "failed"
	FileSkipped   = "skipped"
)

// FileJob is the status of one catalog kind within a run.
type FileJob struct {
	Kind    string            `json:"kind"`
	File    string            `json:"file"`
	Status  string            `json:"status"`
	Error   string            `json:"error,omitempty"`
	Summary *progress.Summary `json:"summary,omitempty"`
}

// RunStatus is a snapshot of the whole run.
type RunStatus struct {
	RunID     string    `json:"run_id"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Files     []FileJob `json:"files"`
}

// Orchestrator sequences the catalog through the pipeline: all entity kinds
// first, then all relationship kinds, so endpoints exist before edges
// reference them. Each file resumes from its own checkpoint, making the whole
// run restartable.
type Orchestrator struct {
	cfg       config.LoaderConfig
	catalog   []schema.Kind
	client    *graph.Client
	pipeline  *Pipeline
	fetcher   *Fetcher
	publisher *progress.Publisher
	logger    *slog.Logger

	// applierFor is swappable in tests to avoid a live store.
	applierFor func(schema.Kind) graph.BatchApplier

	mu     sync.Mutex
	status RunStatus
}

func NewOrchestrator(cfg config.LoaderConfig, catalog []schema.Kind, client *graph.Client, pipeline *Pipeline, fetcher *Fetcher, publisher *progress.Publisher, logger *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		catalog:   catalog,
		client:    client,
		pipeline:  pipeline,
		fetcher:   fetcher,
		publisher: publisher,
		logger:    logger,
		status:    RunStatus{State: StateNotStarted},
	}
	o.applierFor = func(kind schema.Kind) graph.BatchApplier {
		return graph.NewWriter(client, kind, cfg, logger)
	}
	return o
}

// Status returns a copy of the current run status.
func (o *Orchestrator) Status() RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := o.status
	st.Files = make([]FileJob, len(o.status.Files))
	copy(st.Files, o.status.Files)
	return st
}

// Run executes one full load. Entity kinds load before relationship kinds.
// With continue-on-error enabled a failed file is recorded and the run moves
// on; otherwise the first failure aborts the run.
func (o *Orchestrator) Run(ctx context.Context) error {
	runID := uuid.NewString()
	o.initStatus(runID)
	log := o.logger.With(slog.String("run_id", runID))

	log.Info("load run started", slog.Int("kinds", len(o.catalog)))

	if o.client != nil {
		if err := o.client.EnsureConstraints(ctx, o.catalog); err != nil {
			o.setState(StateFailed)
			return fmt.Errorf("ensure constraints: %w", err)
		}
	}

	failures := 0
	phases := [][]schema.Kind{
		schema.EntityKinds(o.catalog),
		schema.RelationshipKinds(o.catalog),
	}
	for _, phase := range phases {
		for _, kind := range phase {
			if ctx.Err() != nil {
				o.setState(StateFailed)
				return ctx.Err()
			}
			if err := o.runKind(ctx, runID, kind, log); err != nil {
				failures++
				if !o.cfg.ContinueOnError {
					o.skipRemaining()
					o.setState(StateFailed)
					o.publisher.Publish(ctx, progress.Event{
						RunID: runID, Event: progress.EventRunCompleted, Error: err.Error(),
					})
					return err
				}
			}
		}
	}

	if failures > 0 {
		o.setState(StateFailed)
		o.publisher.Publish(ctx, progress.Event{
			RunID: runID, Event: progress.EventRunCompleted,
			Error: fmt.Sprintf("%d files failed", failures),
		})
		return fmt.Errorf("load run %s: %d files failed", runID, failures)
	}

	o.setState(StateCompleted)
	o.publisher.Publish(ctx, progress.Event{RunID: runID, Event: progress.EventRunCompleted})
	log.Info("load run completed")
	return nil
}

func (o *Orchestrator) runKind(ctx context.Context, runID string, kind schema.Kind, log *slog.Logger) error {
	o.setFile(kind.Name, FileRunning, "", nil)
	log.Info("file started", slog.String("kind", kind.Name), slog.String("file", kind.File))

	path, err := o.fetcher.Resolve(ctx, kind)
	if err != nil {
		o.setFile(kind.Name, FileFailed, err.Error(), nil)
		log.Error("file failed", slog.String("kind", kind.Name), slog.String("error", err.Error()))
		return err
	}

	summary, err := o.pipeline.RunFile(ctx, kind, path, o.applierFor(kind), o.publisher, runID)
	if err != nil {
		o.setFile(kind.Name, FileFailed, err.Error(), &summary)
		log.Error("file failed",
			slog.String("kind", kind.Name),
			slog.Int64("written", summary.Written),
			slog.Int64("record_errors", summary.RecordErrors),
			slog.String("error", err.Error()))
		o.publisher.Publish(ctx, progress.Event{
			RunID: runID, Kind: kind.Name, File: path,
			Event: progress.EventFileFailed, Error: err.Error(),
		})
		return err
	}

	o.setFile(kind.Name, FileCompleted, "", &summary)
	log.Info("file completed",
		slog.String("kind", kind.Name),
		slog.Int64("written", summary.Written),
		slog.Int64("failed", summary.FailedRecords),
		slog.Int64("record_errors", summary.RecordErrors),
		slog.Int64("batches", summary.Batches),
		slog.Int64("retries", summary.Retries),
		slog.String("size_class", summary.SizeClass),
		slog.Duration("elapsed", summary.Elapsed.Round(time.Second)),
		slog.Float64("records_per_sec", summary.RecordsPerSec))
	o.publisher.Publish(ctx, progress.Event{
		RunID: runID, Kind: kind.Name, File: path, Event: progress.EventFileCompleted,
	})
	return nil
}

func (o *Orchestrator) initStatus(runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	files := make([]FileJob, len(o.catalog))
	for i, k := range o.catalog {
		files[i] = FileJob{Kind: k.Name, File: k.File, Status: FilePending}
	}
	o.status = RunStatus{RunID: runID, State: StateRunning, StartedAt: time.Now().UTC(), Files: files}
}

func (o *Orchestrator) setState(state string) {
	o.mu.Lock()
	o.status.State = state
	o.mu.Unlock()
}

func (o *Orchestrator) setFile(kind, status, errMsg string, summary *progress.Summary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.status.Files {
		if o.status.Files[i].Kind == kind {
			o.status.Files[i].Status = status
			o.status.Files[i].Error = errMsg
			o.status.Files[i].Summary = summary
			return
		}
	}
}

func (o *Orchestrator) skipRemaining() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.status.Files {
		if o.status.Files[i].Status == FilePending {
			o.status.Files[i].Status = FileSkipped
		}
	}
}
