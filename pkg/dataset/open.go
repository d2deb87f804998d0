package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/flowlens/pkg/record"
)

// Supported file extensions.
const (
	extCSV  = ".csv"
	extJSON = ".json"
	extLZ4  = ".lz4"
)

// Open loads a dataset file, choosing the decoder by extension. A trailing
// ".lz4" is decompressed transparently, e.g. "crashes.csv.lz4".
func Open(path string, schema record.Schema, opts Options) (*record.Set, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	defer file.Close()

	name := strings.ToLower(path)

	var src io.Reader = bufio.NewReader(file)

	if strings.HasSuffix(name, extLZ4) {
		src = lz4.NewReader(src)
		name = strings.TrimSuffix(name, extLZ4)
	}

	if opts.MaxBytes > 0 {
		src = &limitedReader{r: io.LimitReader(src, opts.MaxBytes+1), remaining: opts.MaxBytes}
	}

	switch filepath.Ext(name) {
	case extCSV:
		return LoadCSV(src, schema, opts)
	case extJSON:
		return LoadJSON(src, schema, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// limitedReader fails with ErrTooLarge instead of silently truncating.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)

	if l.remaining < 0 {
		return n, ErrTooLarge
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("read dataset: %w", err)
	}

	return n, err //nolint:wrapcheck // io.EOF must pass through unwrapped
}
