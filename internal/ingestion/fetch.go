package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/medgraph/loader/internal/schema"
	miniostore "github.com/medgraph/loader/internal/store/minio"
)

// Fetcher resolves a kind to a readable local path. Files present in the
// data directory are used directly; otherwise, when object storage is
// configured, the file is spooled down once and reused on later runs.
type Fetcher struct {
	dataDir  string
	spoolDir string
	remote   *miniostore.Client // nil when object storage is not configured
	logger   *slog.Logger
}

func NewFetcher(dataDir, spoolDir string, remote *miniostore.Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{dataDir: dataDir, spoolDir: spoolDir, remote: remote, logger: logger}
}

// Resolve returns the local path for a kind's source file, downloading it
// from object storage if necessary.
func (f *Fetcher) Resolve(ctx context.Context, kind schema.Kind) (string, error) {
	local := filepath.Join(f.dataDir, kind.File)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if f.remote == nil {
		return "", fmt.Errorf("source file %s not found in %s", kind.File, f.dataDir)
	}

	spooled := filepath.Join(f.spoolDir, kind.File)
	if _, err := os.Stat(spooled); err == nil {
		return spooled, nil
	}

	ok, err := f.remote.Exists(ctx, kind.File)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("source file %s not found locally or in bucket %s", kind.File, f.remote.Bucket())
	}

	if err := os.MkdirAll(f.spoolDir, 0o755); err != nil {
		return "", fmt.Errorf("create spool dir %s: %w", f.spoolDir, err)
	}
	f.logger.Info("spooling source file",
		slog.String("kind", kind.Name),
		slog.String("object", kind.File),
		slog.String("bucket", f.remote.Bucket()))
	if err := f.remote.DownloadTo(ctx, kind.File, spooled); err != nil {
		return "", err
	}
	return spooled, nil
}
