package batch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medgraph/loader/internal/source"
)

type sliceSource struct {
	outcomes []source.Outcome
	pos      int
}

func (s *sliceSource) Next() (source.Outcome, bool) {
	if s.pos >= len(s.outcomes) {
		return source.Outcome{}, false
	}
	out := s.outcomes[s.pos]
	s.pos++
	return out, true
}

func records(n int) []source.Outcome {
	out := make([]source.Outcome, n)
	for i := range out {
		out[i] = source.Outcome{Record: &source.Record{Line: int64(i + 2)}}
	}
	return out
}

func TestBatcherRespectsMaxSize(t *testing.T) {
	b := New(&sliceSource{outcomes: records(7)}, 3, 10, 0, nil)

	sizes := []int{}
	seqs := []int64{}
	for {
		batch, err := b.Next()
		require.NoError(t, err)
		if batch == nil {
			break
		}
		require.LessOrEqual(t, batch.Size(), 3)
		sizes = append(sizes, batch.Size())
		seqs = append(seqs, batch.Seq)
	}
	// The final partial batch is emitted, not dropped.
	require.Equal(t, []int{3, 3, 1}, sizes)
	require.Equal(t, []int64{1, 2, 3}, seqs)
}

func TestBatcherSequenceResumesFromStart(t *testing.T) {
	b := New(&sliceSource{outcomes: records(2)}, 2, 10, 41, nil)

	batch, err := b.Next()
	require.NoError(t, err)
	require.Equal(t, int64(42), batch.Seq)
}

func TestBatcherSkipsRecordErrors(t *testing.T) {
	outcomes := []source.Outcome{
		{Record: &source.Record{Line: 2}},
		{Err: &source.RecordError{Line: 3, Reason: "bad"}},
		{Record: &source.Record{Line: 4}},
	}
	var seen []int64
	b := New(&sliceSource{outcomes: outcomes}, 10, 10, 0, func(re *source.RecordError) {
		seen = append(seen, re.Line)
	})

	batch, err := b.Next()
	require.NoError(t, err)
	require.Equal(t, 2, batch.Size())
	require.Equal(t, []int64{3}, seen)
	require.Equal(t, 1, b.ErrorCount())
}

func TestBatcherErrorBudgetExceeded(t *testing.T) {
	outcomes := []source.Outcome{
		{Record: &source.Record{Line: 2}},
		{Err: &source.RecordError{Line: 3, Reason: "bad"}},
		{Err: &source.RecordError{Line: 4, Reason: "bad"}},
		{Record: &source.Record{Line: 5}},
	}
	b := New(&sliceSource{outcomes: outcomes}, 10, 1, 0, nil)

	_, err := b.Next()
	require.ErrorIs(t, err, ErrBudgetExceeded)

	// The batcher stays failed once the budget is spent.
	_, err = b.Next()
	require.ErrorIs(t, err, ErrBudgetExceeded)
}
