// Package source streams delimited record files lazily, decoding and
// validating one line at a time so peak memory stays bounded regardless of
// file size.
package source

// Record is a single validated, type-coerced row. Params is keyed by graph
// property name and is ready to use as batch parameters.
type Record struct {
	Line   int64
	Params map[string]any
}

// RecordError is a row that failed decoding or validation. Raw keeps the
// original line content so failures can be replayed manually.
type RecordError struct {
	Line   int64
	Raw    string
	Reason string
}

// Outcome is the result of decoding one raw line: exactly one of Record or
// Err is set.
type Outcome struct {
	Record *Record
	Err    *RecordError
}
