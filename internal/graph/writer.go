package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/medgraph/loader/internal/batch"
	"github.com/medgraph/loader/internal/config"
	"github.com/medgraph/loader/internal/schema"
)

// ErrPermanentFailure marks a batch abandoned after the retry budget.
var ErrPermanentFailure = errors.New("batch permanently failed")

// WriteResult accounts for one batch application, including the retries it
// took and any records dropped during isolation.
type WriteResult struct {
	BatchSeq int64
	Written  int
	Failed   int
	Retries  int
	Duration time.Duration
}

// BatchApplier applies one batch transactionally. The pipeline depends on
// this interface so writes can be faked in tests.
type BatchApplier interface {
	Apply(ctx context.Context, b *batch.Batch) (WriteResult, error)
}

// Writer applies batches of one kind with bounded retry. Transient store
// failures back off exponentially; a batch that is rejected outright falls
// back to per-record application so one bad row cannot sink its batch.
type Writer struct {
	client *Client
	kind   schema.Kind
	query  string
	logger *slog.Logger

	maxRetries int
	timeout    time.Duration

	// Injectable for tests; defaults drive the real store and clock.
	newBackOff func() backoff.BackOff
	sleep      func(context.Context, time.Duration) error
	transient  func(error) bool
	run        func(context.Context, []map[string]any) error
}

// NewWriter creates a Writer for one kind. The upsert statement is generated
// once from the catalog entry.
func NewWriter(client *Client, kind schema.Kind, cfg config.LoaderConfig, logger *slog.Logger) *Writer {
	w := &Writer{
		client:     client,
		kind:       kind,
		query:      UpsertQuery(kind),
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.WriteTimeout,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = cfg.InitialBackoff
			bo.MaxInterval = cfg.MaxBackoff
			bo.MaxElapsedTime = 0
			bo.Reset()
			return bo
		},
		sleep:     sleepCtx,
		transient: isTransient,
	}
	w.run = w.runBatch
	return w
}

// Apply writes one batch. On transient failure it retries up to the
// configured limit with exponential backoff; on a non-transient rejection it
// isolates records individually and reports the survivors as written. The
// returned error is non-nil only when the whole batch is abandoned.
func (w *Writer) Apply(ctx context.Context, b *batch.Batch) (WriteResult, error) {
	start := time.Now()
	rows := make([]map[string]any, len(b.Records))
	for i, rec := range b.Records {
		rows[i] = rec.Params
	}

	res := WriteResult{BatchSeq: b.Seq}
	bo := w.newBackOff()
	for attempt := 0; ; attempt++ {
		err := w.run(ctx, rows)
		if err == nil {
			res.Written = len(rows)
			res.Retries = attempt
			res.Duration = time.Since(start)
			return res, nil
		}
		if ctx.Err() != nil {
			res.Retries = attempt
			res.Duration = time.Since(start)
			return res, ctx.Err()
		}
		if !w.transient(err) {
			w.logger.Warn("batch rejected, isolating records",
				slog.String("kind", w.kind.Name),
				slog.Int64("batch", b.Seq),
				slog.String("error", err.Error()))
			w.isolate(ctx, b, &res)
			res.Retries = attempt
			res.Duration = time.Since(start)
			return res, nil
		}
		if attempt >= w.maxRetries {
			res.Failed = len(rows)
			res.Retries = attempt
			res.Duration = time.Since(start)
			return res, fmt.Errorf("%w: apply %s batch %d after %d retries: %w", ErrPermanentFailure, w.kind.Name, b.Seq, attempt, err)
		}

		wait := bo.NextBackOff()
		w.logger.Warn("transient write failure, retrying",
			slog.String("kind", w.kind.Name),
			slog.Int64("batch", b.Seq),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()))
		if err := w.sleep(ctx, wait); err != nil {
			res.Retries = attempt
			res.Duration = time.Since(start)
			return res, err
		}
	}
}

// isolate applies records one at a time after a batch-level rejection. Each
// failing record is logged with its natural key and counted, never retried.
func (w *Writer) isolate(ctx context.Context, b *batch.Batch, res *WriteResult) {
	for _, rec := range b.Records {
		if ctx.Err() != nil {
			res.Failed += len(b.Records) - res.Written - res.Failed
			return
		}
		if err := w.run(ctx, []map[string]any{rec.Params}); err != nil {
			res.Failed++
			attrs := []any{
				slog.String("kind", w.kind.Name),
				slog.Int64("line", rec.Line),
				slog.String("error", err.Error()),
			}
			for _, key := range w.kind.KeyParams() {
				attrs = append(attrs, slog.Any(key, rec.Params[key]))
			}
			w.logger.Warn("record failed", attrs...)
			continue
		}
		res.Written++
	}
}

// runBatch executes the kind's upsert inside a managed write transaction.
// A fresh session per attempt keeps no store resources held across backoff.
func (w *Writer) runBatch(ctx context.Context, rows []map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	session := w.client.Session(ctx)
	defer session.Close(ctx)

	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, w.query, map[string]any{"rows": rows})
		if err != nil {
			return struct{}{}, err
		}
		_, err = result.Consume(ctx)
		return struct{}{}, err
	})
	return err
}

// isTransient classifies failures worth retrying. Deadline expiry of the
// per-attempt timeout counts as transient; parent cancellation does not.
func isTransient(err error) bool {
	if neo4j.IsRetryable(err) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
