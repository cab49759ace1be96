package clock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMalformedTimestamp is returned when stored content is not a decimal int64.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// Store persists the last-seen wall clock timestamp of one world.
type Store interface {
	// Load returns ok=false when no timestamp has been saved yet.
	Load(ctx context.Context) (ts int64, ok bool, err error)
	Save(ctx context.Context, ts int64) error
}

// FileStore keeps the timestamp as a single decimal line in a plain-text file.
// Every save overwrites the previous content.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// FilePath returns the clock file location for a dimension of a world save.
func FilePath(worldDir, dimension, fileName string) string {
	return filepath.Join(worldDir, dimension, fileName)
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) (int64, bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	// Hand-edited files may carry a BOM or be saved as UTF-16.
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	raw, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", s.path, err)
	}
	ts, err := parseTimestamp(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return ts, true, nil
}

func (s *FileStore) Save(_ context.Context, ts int64) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.FormatInt(ts, 10)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func parseTimestamp(raw []byte) (int64, error) {
	text := bytes.TrimSpace(raw)
	if len(text) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrMalformedTimestamp)
	}
	ts, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text)
	}
	return ts, nil
}
