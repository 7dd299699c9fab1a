// Package fetch downloads documents and background images from remote
// references. HTTP fetches try the origin directly and fall back once
// through a CORS relay, but only when the direct request failed at the
// network level; an HTTP error status is final. s3:// and file://
// references are served by their own loaders.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/micahKingVinciworks/pdf-marketing-image-app/config"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/metrics"
)

// Fetcher resolves remote references into raw payload bytes.
type Fetcher struct {
	client    *http.Client
	relay     string // relay prefix, the target URL is appended escaped
	userAgent string
	s3        objectGetter // nil until the first s3:// fetch, or injected
}

// New builds a fetcher from config. An empty RelayURL disables the
// relay fallback entirely.
func New(cfg config.FetchConfig) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		relay:     cfg.RelayURL,
		userAgent: cfg.UserAgent,
	}
}

// FetchPDF downloads a PDF document.
func (f *Fetcher) FetchPDF(ctx context.Context, rawURL string) ([]byte, error) {
	return f.Fetch(ctx, rawURL, "application/pdf")
}

// FetchImage downloads a background image.
func (f *Fetcher) FetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	return f.Fetch(ctx, rawURL, "image/*")
}

// Fetch dispatches on the reference scheme and returns the payload.
// accept is sent as the Accept header on HTTP fetches and drives the
// content-type mismatch warning.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, accept string) ([]byte, error) {
	switch {
	case strings.HasPrefix(rawURL, "s3://"):
		return f.fetchS3(ctx, rawURL)
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		return f.fetchHTTP(ctx, rawURL, accept)
	case strings.HasPrefix(rawURL, "file://"):
		return f.fetchFile(rawURL, strings.TrimPrefix(rawURL, "file://"))
	default:
		// treat as filesystem path
		return f.fetchFile(rawURL, rawURL)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL, accept string) ([]byte, error) {
	start := time.Now()
	data, err := f.doRequest(ctx, rawURL, accept)
	if err == nil {
		metrics.ObserveFetch("direct", "success", time.Since(start))
		return data, nil
	}
	metrics.ObserveFetch("direct", "failure", time.Since(start))

	// Only a network-level failure earns the relay retry; a served
	// error status is the origin's answer and stands.
	var fe *Error
	if f.relay == "" || !errors.As(err, &fe) || fe.Category != CategoryConnectivity {
		return nil, err
	}

	log.Warn().Str("url", rawURL).Err(err).Msg("direct fetch failed, retrying through relay")

	relayURL := f.relay + url.QueryEscape(rawURL)
	start = time.Now()
	data, rerr := f.doRequest(ctx, relayURL, accept)
	if rerr != nil {
		metrics.ObserveFetch("relay", "failure", time.Since(start))
		var rfe *Error
		if errors.As(rerr, &rfe) {
			rfe.URL = rawURL
			rfe.Relay = true
		}
		return nil, rerr
	}
	metrics.ObserveFetch("relay", "success", time.Since(start))
	log.Debug().Str("url", rawURL).Int("bytes", len(data)).Msg("relay fetch succeeded")
	return data, nil
}

func (f *Fetcher) doRequest(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Category: CategoryGeneric, Err: err}
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Category: CategoryConnectivity, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cat := CategoryGeneric
		if resp.StatusCode == http.StatusForbidden {
			cat = CategoryForbidden
		}
		return nil, &Error{URL: rawURL, Status: resp.StatusCode, Category: cat}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: rawURL, Status: resp.StatusCode, Category: CategoryConnectivity, Err: err}
	}
	if len(data) == 0 {
		return nil, &Error{URL: rawURL, Status: resp.StatusCode, Category: CategoryEmptyPayload}
	}

	checkContentType(rawURL, resp.Header.Get("Content-Type"), accept)
	return data, nil
}

// checkContentType warns on a mismatch but never fails the fetch;
// plenty of servers mislabel PDFs, and the magic-byte gate downstream
// has the final say.
func checkContentType(rawURL, got, accept string) {
	if got == "" || accept == "" {
		return
	}
	want := accept
	if i := strings.Index(want, "/*"); i >= 0 {
		want = want[:i+1]
	}
	if strings.HasPrefix(got, want) {
		return
	}
	log.Warn().
		Str("url", rawURL).
		Str("content_type", got).
		Str("expected", accept).
		Str("category", string(CategoryContentType)).
		Msg("content-type mismatch, continuing")
}

func (f *Fetcher) fetchFile(rawURL, path string) ([]byte, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		metrics.ObserveFetch("file", "failure", time.Since(start))
		return nil, &Error{URL: rawURL, Category: CategoryGeneric, Err: err}
	}
	if len(data) == 0 {
		metrics.ObserveFetch("file", "failure", time.Since(start))
		return nil, &Error{URL: rawURL, Category: CategoryEmptyPayload}
	}
	metrics.ObserveFetch("file", "success", time.Since(start))
	return data, nil
}
