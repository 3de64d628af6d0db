package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/medgraph/loader/internal/schema"
)

const (
	delimiter = "\t"
	// maxLineSize bounds a single line; abstracts and trial descriptions can
	// run long but anything past this is corrupt input.
	maxLineSize = 4 * 1024 * 1024
)

// Reader is a lazy, finite, non-restartable iterator over one delimited file.
// Resuming from a checkpoint is done by constructing a new Reader with a skip
// count, not by rewinding an open one.
type Reader struct {
	kind     schema.Kind
	file     *os.File
	scanner  *bufio.Scanner
	colIndex map[string]int // header column name -> position
	colCount int
	line     int64 // 1-based line number of the last line read
	closed   bool
}

// Open opens the file, decodes the header, and skips skipRecords data lines.
// Skipping counts lines without re-validating their content; it is how a
// resumed run avoids reprocessing cost for already-committed records.
func Open(path string, kind schema.Kind, skipRecords int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	r := &Reader{kind: kind, file: f, scanner: sc, colIndex: make(map[string]int)}

	if !sc.Scan() {
		f.Close()
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header of %s: %w", path, err)
		}
		return nil, fmt.Errorf("read header of %s: %w", path, io.ErrUnexpectedEOF)
	}
	r.line = 1

	header := normalizeLine(sc.Text())
	header = strings.TrimPrefix(header, "\ufeff")
	cols := strings.Split(header, delimiter)
	r.colCount = len(cols)
	for i, c := range cols {
		r.colIndex[strings.TrimSpace(c)] = i
	}

	for _, field := range kind.Fields {
		if _, ok := r.colIndex[field.Column]; !ok && field.Required {
			f.Close()
			return nil, fmt.Errorf("file %s: missing required column %q", path, field.Column)
		}
	}

	for skipped := int64(0); skipped < skipRecords; skipped++ {
		if !sc.Scan() {
			break
		}
		r.line++
	}

	return r, nil
}

// Line returns the line number of the most recently read line.
func (r *Reader) Line() int64 { return r.line }

// Next yields the next validation outcome. It returns false when the file is
// exhausted or an underlying read error occurred (see Err).
func (r *Reader) Next() (Outcome, bool) {
	for {
		if !r.scanner.Scan() {
			return Outcome{}, false
		}
		r.line++
		raw := normalizeLine(r.scanner.Text())
		if raw == "" {
			continue
		}
		return r.decode(raw), true
	}
}

// Err returns the first non-EOF error encountered while reading.
func (r *Reader) Err() error {
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("read %s line %d: %w", r.file.Name(), r.line, err)
	}
	return nil
}

// Close releases the file handle. Safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

func (r *Reader) decode(raw string) Outcome {
	fields := strings.Split(raw, delimiter)
	if len(fields) != r.colCount {
		return Outcome{Err: &RecordError{
			Line:   r.line,
			Raw:    raw,
			Reason: fmt.Sprintf("expected %d fields, got %d", r.colCount, len(fields)),
		}}
	}

	params := make(map[string]any, len(r.kind.Fields))
	for _, field := range r.kind.Fields {
		idx, ok := r.colIndex[field.Column]
		if !ok || idx >= len(fields) {
			if field.Required {
				return Outcome{Err: &RecordError{
					Line:   r.line,
					Raw:    raw,
					Reason: fmt.Sprintf("missing column %s", field.Column),
				}}
			}
			params[field.Property] = nil
			continue
		}

		v, err := coerce(fields[idx], field)
		if err != nil {
			if field.Required {
				return Outcome{Err: &RecordError{Line: r.line, Raw: raw, Reason: err.Error()}}
			}
			// Optional fields degrade to null rather than failing the row.
			v = nil
		}
		params[field.Property] = v
	}

	return Outcome{Record: &Record{Line: r.line, Params: params}}
}

// normalizeLine strips trailing CR so CRLF and LF files decode identically.
func normalizeLine(s string) string {
	return strings.TrimSuffix(s, "\r")
}
