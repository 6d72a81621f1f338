package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/garyellow/programs-board/internal/errors"
)

// FileSource reads the payload from a local file. Files ending in .gz or
// .zst are decompressed.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

// Fetch reads the file.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewSourceError(s.String(), 0, errors.ErrNotFound)
		}
		return nil, errors.NewSourceError(s.String(), 0, err)
	}
	defer func() { _ = f.Close() }()

	data, err := readAll(f, extension(s.path))
	if err != nil {
		return nil, errors.NewSourceError(s.String(), 0, fmt.Errorf("read: %w", err))
	}
	return data, nil
}

// Kind returns KindFile.
func (s *FileSource) Kind() Kind { return KindFile }

func (s *FileSource) String() string { return "file:" + s.path }
