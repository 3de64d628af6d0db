package source

import (
	"bytes"
	"fmt"
	"os"
)

const sampleSize = 1024 * 1024

// EstimateRecords estimates the number of data rows in a file from its size
// and the line density of the first megabyte. Returns 0 when no estimate is
// possible (empty file); callers treat 0 as "unknown" and omit ETA.
func EstimateRecords(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, sampleSize)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return 0, fmt.Errorf("sample %s: %w", path, err)
	}
	lines := int64(bytes.Count(buf[:n], []byte{'\n'}))
	if lines == 0 {
		return 1, nil
	}

	estimated := lines * info.Size() / int64(n)
	// Subtract the header row.
	if estimated > 0 {
		estimated--
	}
	return estimated, nil
}
