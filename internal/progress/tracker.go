// Package progress accounts for per-file load progress: the contiguous
// committed frontier that checkpoints persist, throughput, ETA, and the
// end-of-file summary.
package progress

import (
	"log/slog"
	"sync"
	"time"
)

// Size classes bucket files by expected record count; summaries carry the
// class so slow loads of large files are not mistaken for stalls.
const (
	ClassSmall  = "small"  // under 100k records
	ClassMedium = "medium" // under 1M records
	ClassLarge  = "large"
)

// percentStep forces a snapshot whenever progress crosses another 5% of the
// estimate, on top of the wall-clock interval.
const percentStep = 5.0

// Frontier is the highest contiguous committed position in a file. Batches
// may commit out of order under concurrent writers; the frontier only moves
// when every earlier batch has landed, so it is always safe to checkpoint.
type Frontier struct {
	BatchSeq int64
	Records  int64
}

// Snapshot is a point-in-time view of one file's progress. ETA is zero when
// no record estimate exists.
type Snapshot struct {
	Kind          string
	File          string
	Estimated     int64
	Processed     int64
	Written       int64
	FailedRecords int64
	RecordErrors  int64
	Batches       int64
	Retries       int64
	Percent       float64
	RecordsPerSec float64
	Elapsed       time.Duration
	ETA           time.Duration
}

// LogValue renders the snapshot as structured attributes.
func (s Snapshot) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", s.Kind),
		slog.Int64("processed", s.Processed),
		slog.Int64("written", s.Written),
		slog.Int64("record_errors", s.RecordErrors),
		slog.Int64("failed", s.FailedRecords),
		slog.Float64("records_per_sec", s.RecordsPerSec),
		slog.Duration("elapsed", s.Elapsed.Round(time.Second)),
	}
	if s.Estimated > 0 {
		attrs = append(attrs,
			slog.Float64("percent", s.Percent),
			slog.Duration("eta", s.ETA.Round(time.Second)))
	}
	return slog.GroupValue(attrs...)
}

// Summary is the final accounting for one file. Written + FailedRecords +
// RecordErrors equals the number of records examined this run.
type Summary struct {
	Kind          string
	File          string
	Written       int64
	FailedRecords int64
	RecordErrors  int64
	Batches       int64
	Retries       int64
	Elapsed       time.Duration
	RecordsPerSec float64
	SizeClass     string
}

type batchResult struct {
	records int64
	written int64
	failed  int64
	retries int64
}

// Tracker accumulates batch results for one file and maintains the
// checkpointable frontier. Safe for concurrent use; the pipeline's collector
// writes while the status API reads.
type Tracker struct {
	mu sync.Mutex

	kind      string
	file      string
	estimated int64
	// base is the record count already committed by earlier runs; percent
	// and ETA are measured against base+processed, throughput against this
	// run's processed only.
	base    int64
	now     func() time.Time
	started time.Time

	frontier Frontier
	nextSeq  int64
	pending  map[int64]batchResult

	processed    int64
	written      int64
	failed       int64
	recordErrors int64
	batches      int64
	retries      int64

	interval     time.Duration
	lastReport   time.Time
	lastReportPc float64
}

// NewTracker starts tracking a file. resume carries the checkpointed frontier
// for a resumed run (zero value for a fresh file); estimated of 0 means the
// record count is unknown and ETA is omitted.
func NewTracker(kind, file string, estimated int64, resume Frontier, interval time.Duration, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{
		kind:      kind,
		file:      file,
		estimated: estimated,
		base:      resume.Records,
		now:       now,
		started:   now(),
		frontier:  resume,
		nextSeq:   resume.BatchSeq + 1,
		pending:   make(map[int64]batchResult),
		interval:  interval,
	}
	t.lastReport = t.started
	return t
}

// RecordError counts one malformed or invalid source row.
func (t *Tracker) RecordError() {
	t.mu.Lock()
	t.recordErrors++
	t.mu.Unlock()
}

// BatchDone records the outcome of one batch and returns the new frontier
// along with whether it advanced. The frontier only moves across batches
// whose every predecessor has also completed.
func (t *Tracker) BatchDone(seq, records, written, failed, retries int64) (Frontier, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed += records
	t.written += written
	t.failed += failed
	t.batches++
	t.retries += retries

	t.pending[seq] = batchResult{records: records, written: written, failed: failed, retries: retries}

	advanced := false
	for {
		res, ok := t.pending[t.nextSeq]
		if !ok {
			break
		}
		delete(t.pending, t.nextSeq)
		t.frontier.BatchSeq = t.nextSeq
		t.frontier.Records += res.records
		t.nextSeq++
		advanced = true
	}
	return t.frontier, advanced
}

// BatchFailed records a batch abandoned after its retry budget. Its records
// count as failed and processed, but the batch never enters the frontier, so
// the checkpoint stalls just before it and a rerun retries from there.
func (t *Tracker) BatchFailed(records, retries int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processed += records
	t.failed += records
	t.batches++
	t.retries += retries
}

// Snapshot returns the current progress view.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Report returns a snapshot when one is due: the configured interval has
// elapsed, or progress crossed another percent step of the estimate.
func (t *Tracker) Report() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.snapshotLocked()
	due := t.now().Sub(t.lastReport) >= t.interval
	if t.estimated > 0 && s.Percent >= t.lastReportPc+percentStep {
		due = true
	}
	if !due {
		return Snapshot{}, false
	}
	t.lastReport = t.now()
	t.lastReportPc = s.Percent
	return s, true
}

// Summary returns the final accounting for the file.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := t.now().Sub(t.started)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(t.processed) / elapsed.Seconds()
	}
	return Summary{
		Kind:          t.kind,
		File:          t.file,
		Written:       t.written,
		FailedRecords: t.failed,
		RecordErrors:  t.recordErrors,
		Batches:       t.batches,
		Retries:       t.retries,
		Elapsed:       elapsed,
		RecordsPerSec: rate,
		SizeClass:     sizeClass(t.processed),
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	elapsed := t.now().Sub(t.started)
	s := Snapshot{
		Kind:          t.kind,
		File:          t.file,
		Estimated:     t.estimated,
		Processed:     t.processed,
		Written:       t.written,
		FailedRecords: t.failed,
		RecordErrors:  t.recordErrors,
		Batches:       t.batches,
		Retries:       t.retries,
		Elapsed:       elapsed,
	}
	if elapsed > 0 {
		s.RecordsPerSec = float64(t.processed) / elapsed.Seconds()
	}
	if t.estimated > 0 {
		done := t.base + t.processed
		s.Percent = 100 * float64(done) / float64(t.estimated)
		if s.Percent > 100 {
			s.Percent = 100
		}
		if s.RecordsPerSec > 0 && done < t.estimated {
			remaining := float64(t.estimated - done)
			s.ETA = time.Duration(remaining / s.RecordsPerSec * float64(time.Second))
		}
	}
	return s
}

func sizeClass(records int64) string {
	switch {
	case records < 100_000:
		return ClassSmall
	case records < 1_000_000:
		return ClassMedium
	default:
		return ClassLarge
	}
}
