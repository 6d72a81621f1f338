package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/garyellow/programs-board/internal/errors"
	"github.com/garyellow/programs-board/internal/r2client"
)

// ObjectDownloader is the subset of *r2client.Client used by R2Source.
type ObjectDownloader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// R2Source reads the payload from an object in an R2 bucket. Keys ending in
// .gz or .zst are decompressed.
type R2Source struct {
	client ObjectDownloader
	key    string
}

// NewR2Source creates an R2Source for key.
func NewR2Source(client ObjectDownloader, key string) *R2Source {
	return &R2Source{client: client, key: key}
}

// Fetch downloads the object.
func (s *R2Source) Fetch(ctx context.Context) ([]byte, error) {
	body, _, err := s.client.Download(ctx, s.key)
	if err != nil {
		if stderrors.Is(err, r2client.ErrNotFound) {
			return nil, errors.NewSourceError(s.String(), 0, fmt.Errorf("%w: %w", errors.ErrNotFound, err))
		}
		return nil, errors.NewSourceError(s.String(), 0, err)
	}
	defer func() { _ = body.Close() }()

	data, err := readAll(body, extension(s.key))
	if err != nil {
		return nil, errors.NewSourceError(s.String(), 0, fmt.Errorf("read object: %w", err))
	}
	return data, nil
}

// Kind returns KindR2.
func (s *R2Source) Kind() Kind { return KindR2 }

func (s *R2Source) String() string { return R2Scheme + s.key }
