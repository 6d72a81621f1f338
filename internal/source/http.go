package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/corpix/uarand"

	"github.com/garyellow/programs-board/internal/errors"
)

// HTTPSource fetches the payload with a single GET. Failed requests are not
// retried.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates an HTTPSource. A zero timeout means no client timeout;
// the caller's context still applies.
func NewHTTPSource(rawURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url: rawURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Fetch performs the GET. Non-2xx responses return an *errors.SourceError
// carrying the status code.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.NewSourceError(s.url, 0, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "application/json")
	// Setting Accept-Encoding disables the transport's transparent gzip,
	// so the body is decoded here.
	req.Header.Set("Accept-Encoding", "gzip, zstd")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewSourceError(s.url, 0, fmt.Errorf("%w: %w", errors.ErrTimeout, err))
		}
		return nil, errors.NewSourceError(s.url, 0, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewSourceError(s.url, resp.StatusCode, errors.ErrUnexpectedStatus)
	}

	data, err := readAll(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, errors.NewSourceError(s.url, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	return data, nil
}

// Kind returns KindHTTP.
func (s *HTTPSource) Kind() Kind { return KindHTTP }

func (s *HTTPSource) String() string { return s.url }
