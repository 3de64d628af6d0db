package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time              { return c.t }
func (c *fakeClock) advance(d time.Duration) time.Time { c.t = c.t.Add(d); return c.t }

func newTestTracker(estimated int64, resume Frontier, clock *fakeClock) *Tracker {
	return NewTracker("papers", "/d/f.tsv", estimated, resume, 15*time.Second, clock.now)
}

func TestTrackerFrontierAdvancesInOrder(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(0, Frontier{}, clock)

	f, advanced := tr.BatchDone(1, 100, 100, 0, 0)
	require.True(t, advanced)
	require.Equal(t, Frontier{BatchSeq: 1, Records: 100}, f)

	f, advanced = tr.BatchDone(2, 100, 100, 0, 0)
	require.True(t, advanced)
	require.Equal(t, Frontier{BatchSeq: 2, Records: 200}, f)
}

func TestTrackerFrontierHoldsForGaps(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(0, Frontier{}, clock)

	// Batch 2 commits before batch 1 under concurrent writers.
	f, advanced := tr.BatchDone(2, 100, 100, 0, 0)
	require.False(t, advanced)
	require.Equal(t, Frontier{}, f)

	f, advanced = tr.BatchDone(3, 100, 100, 0, 0)
	require.False(t, advanced)

	// Batch 1 lands and the frontier jumps over everything contiguous.
	f, advanced = tr.BatchDone(1, 100, 100, 0, 0)
	require.True(t, advanced)
	require.Equal(t, Frontier{BatchSeq: 3, Records: 300}, f)
}

func TestTrackerResumesFromCheckpoint(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(0, Frontier{BatchSeq: 5, Records: 10000}, clock)

	f, advanced := tr.BatchDone(6, 2000, 2000, 0, 0)
	require.True(t, advanced)
	require.Equal(t, Frontier{BatchSeq: 6, Records: 12000}, f)
}

func TestTrackerSnapshotETA(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(1000, Frontier{}, clock)

	clock.advance(10 * time.Second)
	tr.BatchDone(1, 500, 500, 0, 0)

	s := tr.Snapshot()
	require.InDelta(t, 50.0, s.Percent, 0.01)
	require.InDelta(t, 50.0, s.RecordsPerSec, 0.01)
	require.InDelta(t, float64(10*time.Second), float64(s.ETA), float64(100*time.Millisecond))
}

func TestTrackerResumedPercentIncludesCommitted(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(1000, Frontier{BatchSeq: 5, Records: 500}, clock)

	clock.advance(10 * time.Second)
	tr.BatchDone(6, 100, 100, 0, 0)

	// A run resumed at 50% does not restart the percentage from zero.
	s := tr.Snapshot()
	require.InDelta(t, 60.0, s.Percent, 0.01)
	// Throughput covers this run only; ETA covers only what is left.
	require.InDelta(t, 10.0, s.RecordsPerSec, 0.01)
	require.InDelta(t, float64(40*time.Second), float64(s.ETA), float64(100*time.Millisecond))
}

func TestTrackerBatchFailedStallsFrontier(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(0, Frontier{}, clock)

	f, advanced := tr.BatchDone(1, 100, 100, 0, 0)
	require.True(t, advanced)
	require.Equal(t, Frontier{BatchSeq: 1, Records: 100}, f)

	tr.BatchFailed(100, 3)

	// Later batches never advance past the abandoned one.
	f, advanced = tr.BatchDone(3, 100, 100, 0, 0)
	require.False(t, advanced)
	require.Equal(t, Frontier{BatchSeq: 1, Records: 100}, f)

	sum := tr.Summary()
	require.Equal(t, int64(200), sum.Written)
	require.Equal(t, int64(100), sum.FailedRecords)
	require.Equal(t, int64(3), sum.Batches)
	require.Equal(t, int64(3), sum.Retries)
}

func TestTrackerNoEstimateNoETA(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(0, Frontier{}, clock)

	clock.advance(10 * time.Second)
	tr.BatchDone(1, 500, 500, 0, 0)

	s := tr.Snapshot()
	require.Zero(t, s.Percent)
	require.Zero(t, s.ETA)
	require.Greater(t, s.RecordsPerSec, 0.0)
}

func TestTrackerReportThrottled(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(0, Frontier{}, clock)

	tr.BatchDone(1, 100, 100, 0, 0)
	_, due := tr.Report()
	require.False(t, due)

	clock.advance(16 * time.Second)
	s, due := tr.Report()
	require.True(t, due)
	require.Equal(t, int64(100), s.Processed)

	// Immediately after a report, nothing is due.
	_, due = tr.Report()
	require.False(t, due)
}

func TestTrackerReportOnPercentStep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(1000, Frontier{}, clock)

	clock.advance(time.Second)
	tr.BatchDone(1, 60, 60, 0, 0)
	_, due := tr.Report()
	require.True(t, due, "crossing 5%% forces a report before the interval")
}

func TestTrackerSummaryReconciles(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := newTestTracker(0, Frontier{}, clock)

	tr.RecordError()
	tr.RecordError()
	tr.BatchDone(1, 100, 98, 2, 1)
	tr.BatchDone(2, 50, 50, 0, 0)
	clock.advance(10 * time.Second)

	sum := tr.Summary()
	require.Equal(t, int64(148), sum.Written)
	require.Equal(t, int64(2), sum.FailedRecords)
	require.Equal(t, int64(2), sum.RecordErrors)
	require.Equal(t, int64(2), sum.Batches)
	require.Equal(t, int64(1), sum.Retries)
	require.Equal(t, ClassSmall, sum.SizeClass)
	// Every examined record is accounted for exactly once.
	require.Equal(t, int64(152), sum.Written+sum.FailedRecords+sum.RecordErrors)
}

func TestSizeClass(t *testing.T) {
	require.Equal(t, ClassSmall, sizeClass(99_999))
	require.Equal(t, ClassMedium, sizeClass(100_000))
	require.Equal(t, ClassMedium, sizeClass(999_999))
	require.Equal(t, ClassLarge, sizeClass(1_000_000))
}
