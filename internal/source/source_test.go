package source

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/programs-board/internal/errors"
	"github.com/garyellow/programs-board/internal/r2client"
)

const payload = `[{"name":"GSoC","contributors":12}]`

func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data string) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll([]byte(data), nil)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      Config
		wantKind Kind
		wantStr  string
	}{
		{
			name:     "local file",
			cfg:      Config{Location: "data/programs.json"},
			wantKind: KindFile,
			wantStr:  "file:data/programs.json",
		},
		{
			name:     "absolute URL",
			cfg:      Config{Location: "https://example.org/data/programs.json"},
			wantKind: KindHTTP,
			wantStr:  "https://example.org/data/programs.json",
		},
		{
			name:     "relative to base URL",
			cfg:      Config{Location: "../data/programs.json", BaseURL: "https://example.org/site/pages/"},
			wantKind: KindHTTP,
			wantStr:  "https://example.org/site/data/programs.json",
		},
		{
			name:     "absolute URL ignores base",
			cfg:      Config{Location: "HTTP://cdn.example.org/p.json", BaseURL: "https://example.org/"},
			wantKind: KindHTTP,
			wantStr:  "HTTP://cdn.example.org/p.json",
		},
		{
			name: "r2 object",
			cfg: Config{
				Location: "r2://listings/programs.json.zst",
				R2: r2client.Config{
					Endpoint:    "https://account.r2.cloudflarestorage.com",
					AccessKeyID: "key",
					SecretKey:   "secret",
					BucketName:  "bucket",
				},
			},
			wantKind: KindR2,
			wantStr:  "r2://listings/programs.json.zst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src, err := Resolve(context.Background(), tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, src.Kind())
			assert.Equal(t, tt.wantStr, src.String())
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		invalid bool
	}{
		{name: "empty", cfg: Config{Location: "  "}, invalid: true},
		{name: "r2 without key", cfg: Config{Location: "r2://"}, invalid: true},
		{name: "r2 without credentials", cfg: Config{Location: "r2://programs.json"}},
		{name: "bad base URL", cfg: Config{Location: "programs.json", BaseURL: "ftp://example.org/"}, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Resolve(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.IsInvalidInput(err))
		})
	}
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o644))
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "plain", path: write("programs.json", []byte(payload))},
		{name: "gzip", path: write("programs.json.gz", gzipBytes(t, payload))},
		{name: "zstd", path: write("programs.json.zst", zstdBytes(t, payload))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := NewFileSource(tt.path).Fetch(context.Background())
			require.NoError(t, err)
			assert.JSONEq(t, payload, string(data))
		})
	}
}

func TestFileSource_Missing(t *testing.T) {
	t.Parallel()

	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json")).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	var srcErr *errors.SourceError
	assert.True(t, stderrors.As(err, &srcErr))
}

func TestHTTPSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		switch r.URL.Path {
		case "/plain.json":
			_, _ = w.Write([]byte(payload))
		case "/gzip.json":
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(gzipBytes(t, payload))
		case "/zstd.json":
			w.Header().Set("Content-Encoding", "zstd")
			_, _ = w.Write(zstdBytes(t, payload))
		case "/broken.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	for _, p := range []string{"/plain.json", "/gzip.json", "/zstd.json"} {
		data, err := NewHTTPSource(srv.URL+p, 5*time.Second).Fetch(context.Background())
		require.NoError(t, err, p)
		assert.JSONEq(t, payload, string(data), p)
	}

	_, err := NewHTTPSource(srv.URL+"/broken.json", 5*time.Second).Fetch(context.Background())
	require.Error(t, err)
	var srcErr *errors.SourceError
	require.True(t, stderrors.As(err, &srcErr))
	assert.Equal(t, http.StatusInternalServerError, srcErr.StatusCode)
	assert.ErrorIs(t, err, errors.ErrUnexpectedStatus)
}

func TestHTTPSource_RelativeFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/site/data/programs.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	src, err := Resolve(context.Background(), Config{
		Location: "../data/programs.json",
		BaseURL:  srv.URL + "/site/pages/",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)

	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(data))
}

func TestHTTPSource_TooLarge(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat(" ", MaxPayloadSize+1)))
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTPSource(srv.URL, 5*time.Second).Fetch(context.Background())
	assert.Error(t, err)
}

type fakeDownloader struct {
	objects map[string][]byte
}

func (f *fakeDownloader) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", r2client.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "etag", nil
}

func TestR2Source(t *testing.T) {
	t.Parallel()

	dl := &fakeDownloader{objects: map[string][]byte{
		"programs.json":     []byte(payload),
		"programs.json.zst": zstdBytes(t, payload),
	}}

	for _, key := range []string{"programs.json", "programs.json.zst"} {
		data, err := NewR2Source(dl, key).Fetch(context.Background())
		require.NoError(t, err, key)
		assert.JSONEq(t, payload, string(data), key)
	}

	_, err := NewR2Source(dl, "missing.json").Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.ErrorIs(t, err, r2client.ErrNotFound)
}
