// Package imagefetch downloads generated illustrations by URL.
package imagefetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/starford/ecolog/internal/upstream"
)

// Fetcher downloads image bytes over HTTP(S).
type Fetcher struct {
	client *resty.Client
}

// New returns a Fetcher with the given per-request timeout (30s when zero).
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{client: resty.New().SetTimeout(timeout)}
}

// Fetch returns the body and content type of url. Any non-200 status is an
// error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("imagefetch: get %s: %w", url, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, "", &upstream.StatusError{Service: "imagefetch", Code: res.StatusCode(), Body: res.Status()}
	}
	return res.Body(), res.Header().Get("Content-Type"), nil
}
