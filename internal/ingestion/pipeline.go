// Package ingestion drives the load: per-file streaming pipelines and the
// run orchestrator that sequences them.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/medgraph/loader/internal/batch"
	"github.com/medgraph/loader/internal/checkpoint"
	"github.com/medgraph/loader/internal/config"
	"github.com/medgraph/loader/internal/graph"
	"github.com/medgraph/loader/internal/progress"
	"github.com/medgraph/loader/internal/schema"
	"github.com/medgraph/loader/internal/source"
)

// Pipeline streams one file into the graph: a reader/batcher producer feeds a
// bounded queue drained by writer workers, while a collector owns the tracker
// and checkpoint persistence. The queue depth bounds memory no matter how
// large the file is.
type Pipeline struct {
	cfg         config.LoaderConfig
	checkpoints *checkpoint.FileStore
	logger      *slog.Logger
}

func NewPipeline(cfg config.LoaderConfig, checkpoints *checkpoint.FileStore, logger *slog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, checkpoints: checkpoints, logger: logger}
}

// RunFile loads one file through the applier, resuming from its checkpoint if
// one exists. It returns the file summary and a non-nil error when the file
// must be treated as failed.
func (p *Pipeline) RunFile(ctx context.Context, kind schema.Kind, path string, applier graph.BatchApplier, publisher *progress.Publisher, runID string) (progress.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cp, err := p.checkpoints.Load(kind.Name, path)
	if err != nil {
		return progress.Summary{}, err
	}
	resume := progress.Frontier{}
	if cp != nil {
		resume = progress.Frontier{BatchSeq: cp.BatchSeq, Records: cp.Records}
		p.logger.Info("resuming from checkpoint",
			slog.String("kind", kind.Name),
			slog.Int64("batch", cp.BatchSeq),
			slog.Int64("records", cp.Records))
	}

	estimated, err := source.EstimateRecords(path)
	if err != nil {
		p.logger.Warn("record estimate unavailable",
			slog.String("kind", kind.Name),
			slog.String("error", err.Error()))
		estimated = 0
	}

	tracker := progress.NewTracker(kind.Name, path, estimated, resume, p.cfg.ProgressInterval, nil)
	publisher.Publish(ctx, progress.Event{
		RunID: runID, Kind: kind.Name, File: path, Event: progress.EventFileStarted,
	})

	reader, err := source.Open(path, kind, resume.Records)
	if err != nil {
		return tracker.Summary(), err
	}
	defer reader.Close()

	batcher := batch.New(reader, kind.BatchSize, p.cfg.MaxRecordErrors, resume.BatchSeq, func(re *source.RecordError) {
		tracker.RecordError()
		p.logger.Warn("record error",
			slog.String("kind", kind.Name),
			slog.Int64("line", re.Line),
			slog.String("reason", re.Reason),
			slog.String("raw", re.Raw))
	})

	batches := make(chan *batch.Batch, p.cfg.QueueDepth)
	results := make(chan writeOutcome, p.cfg.QueueDepth)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)
		for {
			b, err := batcher.Next()
			if err != nil {
				return fmt.Errorf("batch %s: %w", kind.Name, err)
			}
			if b == nil {
				return reader.Err()
			}
			select {
			case batches <- b:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	workers := p.cfg.WriteConcurrency
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for b := range batches {
				res, err := applier.Apply(gctx, b)
				if err != nil {
					// A batch that spent its retry budget is counted and
					// skipped; later batches still load. Anything else
					// (cancellation, checkpoint trouble) aborts the file.
					if p.cfg.ContinueOnError && errors.Is(err, graph.ErrPermanentFailure) {
						p.logger.Error("batch permanently failed",
							slog.String("kind", kind.Name),
							slog.Int64("batch", b.Seq),
							slog.String("error", err.Error()))
						select {
						case results <- writeOutcome{res: res, permanent: true}:
							continue
						case <-gctx.Done():
							return gctx.Err()
						}
					}
					return err
				}
				select {
				case results <- writeOutcome{res: res}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	var runErr error
	go func() {
		runErr = g.Wait()
		close(results)
	}()

	// The collector is the only goroutine that touches the checkpoint store,
	// so saves are serialized even with concurrent writers.
	var cpErr error
	var permanentBatches int64
	for out := range results {
		res := out.res
		if out.permanent {
			// The failed batch stalls the frontier: its records count as
			// failed, but the checkpoint never claims them, so a rerun
			// retries from just before the failure.
			permanentBatches++
			tracker.BatchFailed(int64(res.Failed), int64(res.Retries))
		} else {
			records := int64(res.Written + res.Failed)
			frontier, advanced := tracker.BatchDone(res.BatchSeq, records, int64(res.Written), int64(res.Failed), int64(res.Retries))
			if advanced && cpErr == nil {
				err := p.checkpoints.Save(&checkpoint.Checkpoint{
					Kind:     kind.Name,
					Path:     path,
					BatchSeq: frontier.BatchSeq,
					Records:  frontier.Records,
				})
				if err != nil {
					cpErr = err
					cancel()
				}
			}
		}
		if snap, due := tracker.Report(); due {
			p.logger.Info("progress", slog.Any("file", snap))
			publisher.Publish(ctx, progress.Event{
				RunID: runID, Kind: kind.Name, File: path,
				Event: progress.EventFileProgress, Snapshot: &snap,
			})
		}
	}

	summary := tracker.Summary()
	if cpErr != nil {
		return summary, cpErr
	}
	if runErr != nil {
		return summary, runErr
	}
	if permanentBatches > 0 {
		// The checkpoint stays at the stalled frontier for the rerun.
		return summary, fmt.Errorf("load %s: %d batches: %w", kind.Name, permanentBatches, graph.ErrPermanentFailure)
	}

	if err := p.checkpoints.Clear(kind.Name, path); err != nil {
		return summary, err
	}
	return summary, nil
}

// writeOutcome pairs a batch result with whether the batch was abandoned
// after exhausting its retries.
type writeOutcome struct {
	res       graph.WriteResult
	permanent bool
}
