// Package checkpoint persists per-file load progress so an interrupted run
// can resume without rewriting committed batches.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint records the contiguous committed frontier for one source file.
// Records is the count of source records fully committed in order; BatchSeq
// is the last batch inside that frontier.
type Checkpoint struct {
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	BatchSeq  int64     `json:"batch_seq"`
	Records   int64     `json:"records"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore keeps one JSON checkpoint file per (kind, source path) in a
// directory. Saves are atomic: write to a temp file, fsync, rename.
type FileStore struct {
	dir string
}

// NewFileStore creates the checkpoint directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Load returns the checkpoint for a source file, or nil when none exists.
func (s *FileStore) Load(kind, path string) (*Checkpoint, error) {
	data, err := os.ReadFile(s.filename(kind, path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint for %s: %w", kind, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint for %s: %w", kind, err)
	}
	// A checkpoint written for a file at a different path is not trusted;
	// treating it as absent restarts the file, which is safe under idempotent
	// upserts.
	if cp.Path != path {
		return nil, nil
	}
	return &cp, nil
}

// Save durably replaces the checkpoint for a source file.
func (s *FileStore) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint for %s: %w", cp.Kind, err)
	}

	target := s.filename(cp.Kind, cp.Path)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint for %s: %w", cp.Kind, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync checkpoint for %s: %w", cp.Kind, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint for %s: %w", cp.Kind, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("commit checkpoint for %s: %w", cp.Kind, err)
	}
	return nil
}

// Clear removes the checkpoint once a file completes.
func (s *FileStore) Clear(kind, path string) error {
	err := os.Remove(s.filename(kind, path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear checkpoint for %s: %w", kind, err)
	}
	return nil
}

// filename derives a stable name from the kind and a hash of the absolute
// path, so the same file loaded from two locations cannot share state.
func (s *FileStore) filename(kind, path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return filepath.Join(s.dir, fmt.Sprintf("%s-%016x.json", kind, h.Sum64()))
}
