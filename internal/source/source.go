// Package source retrieves the raw program listing document from a local
// file, an HTTP(S) endpoint or a Cloudflare R2 object.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/garyellow/programs-board/internal/errors"
	"github.com/garyellow/programs-board/internal/r2client"
)

// MaxPayloadSize bounds how much of a (decompressed) payload is read.
const MaxPayloadSize = 10 << 20

// R2Scheme prefixes locations that name an object in the configured bucket.
const R2Scheme = "r2://"

// Kind labels a source implementation in logs and metrics.
type Kind string

const (
	KindFile Kind = "file"
	KindHTTP Kind = "http"
	KindR2   Kind = "r2"
)

// Source retrieves the listing payload. Each call performs one retrieval.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Kind() Kind
	String() string
}

// Config selects and configures a Source.
type Config struct {
	// Location is a file path, an absolute http(s) URL, an r2://key or a
	// path relative to BaseURL.
	Location string
	// BaseURL resolves relative locations over HTTP when set.
	BaseURL string
	// Timeout bounds HTTP requests.
	Timeout time.Duration
	// R2 is required for r2:// locations.
	R2 r2client.Config
}

// Resolve picks the Source for cfg.Location:
// r2://key uses R2, http(s) URLs use HTTP, a relative location with a
// BaseURL is fetched relative to it, and anything else is a local file.
func Resolve(ctx context.Context, cfg Config) (Source, error) {
	loc := strings.TrimSpace(cfg.Location)
	if loc == "" {
		return nil, errors.NewValidationError("location", "must not be empty")
	}

	if key, ok := strings.CutPrefix(loc, R2Scheme); ok {
		if key == "" {
			return nil, errors.NewValidationError("location", "r2 location has no object key")
		}
		client, err := r2client.New(ctx, cfg.R2)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		return NewR2Source(client, key), nil
	}

	if isHTTP(loc) {
		return NewHTTPSource(loc, cfg.Timeout), nil
	}

	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil || !isHTTP(cfg.BaseURL) {
			return nil, errors.NewValidationError("base_url", fmt.Sprintf("%q is not an http(s) URL", cfg.BaseURL))
		}
		ref, err := url.Parse(loc)
		if err != nil {
			return nil, errors.NewValidationError("location", err.Error())
		}
		return NewHTTPSource(base.ResolveReference(ref).String(), cfg.Timeout), nil
	}

	return NewFileSource(loc), nil
}

func isHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// decoder wraps r according to a compression hint: a Content-Encoding value
// or a file extension. Unknown hints return r unchanged.
func decoder(r io.Reader, hint string) (io.ReadCloser, error) {
	switch strings.ToLower(hint) {
	case "gzip", ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case "zstd", ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return io.NopCloser(r), nil
	}
}

// readAll reads at most MaxPayloadSize bytes, decompressing per hint.
func readAll(r io.Reader, hint string) ([]byte, error) {
	dec, err := decoder(r, hint)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dec.Close() }()

	data, err := io.ReadAll(io.LimitReader(dec, MaxPayloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxPayloadSize {
		return nil, fmt.Errorf("payload exceeds %d bytes", MaxPayloadSize)
	}
	return data, nil
}

func extension(name string) string {
	return path.Ext(name)
}
