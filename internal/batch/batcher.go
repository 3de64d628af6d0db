// Package batch groups validated records into bounded, sequenced units for
// transactional application.
package batch

import (
	"errors"
	"fmt"

	"github.com/medgraph/loader/internal/source"
)

// ErrBudgetExceeded signals that the per-file record error budget was spent
// and no further batches will be emitted for this file.
var ErrBudgetExceeded = errors.New("record error budget exceeded")

// Batch is an ordered group of validated records with a per-file sequence
// number. Sequence numbers are strictly increasing and resume from the
// checkpointed batch count.
type Batch struct {
	Seq     int64
	Records []*source.Record
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int { return len(b.Records) }

// Source yields validation outcomes until exhausted.
type Source interface {
	Next() (source.Outcome, bool)
}

// Batcher consumes a validation outcome stream, separating record errors from
// valid records and emitting size-capped batches.
type Batcher struct {
	src       Source
	maxSize   int
	maxErrors int
	seq       int64
	errCount  int
	onError   func(*source.RecordError)
}

// New creates a Batcher. startSeq is the last committed batch sequence number
// (0 for a fresh file); the first emitted batch is startSeq+1. onError is
// invoked once per record error, before budget accounting.
func New(src Source, maxSize, maxErrors int, startSeq int64, onError func(*source.RecordError)) *Batcher {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Batcher{src: src, maxSize: maxSize, maxErrors: maxErrors, seq: startSeq, onError: onError}
}

// Next returns the next batch, or (nil, nil) when the source is exhausted.
// A final partial batch is emitted, never discarded. Once the accumulated
// record error count for the file exceeds the budget, Next returns
// ErrBudgetExceeded and the file must be treated as failed.
func (b *Batcher) Next() (*Batch, error) {
	if b.errCount > b.maxErrors {
		return nil, ErrBudgetExceeded
	}

	records := make([]*source.Record, 0, b.maxSize)
	for len(records) < b.maxSize {
		out, ok := b.src.Next()
		if !ok {
			break
		}
		if out.Err != nil {
			b.errCount++
			if b.onError != nil {
				b.onError(out.Err)
			}
			if b.errCount > b.maxErrors {
				return nil, fmt.Errorf("%d record errors: %w", b.errCount, ErrBudgetExceeded)
			}
			continue
		}
		records = append(records, out.Record)
	}

	if len(records) == 0 {
		return nil, nil
	}
	b.seq++
	return &Batch{Seq: b.seq, Records: records}, nil
}

// ErrorCount returns the number of record errors seen so far for this file.
func (b *Batcher) ErrorCount() int { return b.errCount }
