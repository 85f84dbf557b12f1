package genimage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	fetcherDefaultGrace      = 2 * time.Second
	fetcherDefaultRetryDelay = 2 * time.Second
	fetcherDefaultMaxWait    = 30 * time.Second
	fetcherDefaultTimeout    = 60 * time.Second
)

// FetcherOptions controls the download behavior for generated-image URLs.
type FetcherOptions struct {
	HTTPClient *http.Client
	// Grace is the initial delay before the first attempt; generation
	// services may hand out a URL slightly before the resource exists.
	Grace time.Duration
	// RetryDelay is the pause between attempts while the resource is not
	// ready yet.
	RetryDelay time.Duration
	// MaxWait bounds the whole fetch including retries.
	MaxWait time.Duration
}

// Fetcher downloads a generated image from its URL. Not-ready responses are
// retried with a fixed delay until the deadline; this replaces a blind sleep
// with a bounded readiness poll.
type Fetcher struct {
	httpClient *http.Client
	grace      time.Duration
	retryDelay time.Duration
	maxWait    time.Duration
}

// NewFetcher builds a Fetcher, filling in defaults for unset options.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: fetcherDefaultTimeout}
	}
	f := &Fetcher{
		httpClient: client,
		grace:      opts.Grace,
		retryDelay: opts.RetryDelay,
		maxWait:    opts.MaxWait,
	}
	if f.grace < 0 {
		f.grace = 0
	} else if f.grace == 0 {
		f.grace = fetcherDefaultGrace
	}
	if f.retryDelay <= 0 {
		f.retryDelay = fetcherDefaultRetryDelay
	}
	if f.maxWait <= 0 {
		f.maxWait = fetcherDefaultMaxWait
	}
	return f
}

// Fetch retrieves the image bytes behind url, waiting out the grace period
// first and retrying not-ready statuses until the deadline.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, &FetchError{URL: url, Err: errors.New("empty url")}
	}
	if err := sleepCtx(ctx, f.grace); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	deadline := time.Now().Add(f.maxWait)
	var lastErr error
	for {
		data, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		if time.Now().Add(f.retryDelay).After(deadline) {
			return nil, lastErr
		}
		if err := sleepCtx(ctx, f.retryDelay); err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, &FetchError{URL: url, Err: err}
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		// Transient transport failures count as not-ready.
		return nil, ctx.Err() == nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, retryableStatus(resp.StatusCode), &FetchError{URL: url, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &FetchError{URL: url, Err: err}
	}
	if len(data) == 0 {
		return nil, true, &FetchError{URL: url, Err: fmt.Errorf("empty body")}
	}
	return data, false, nil
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusNotFound, http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return status >= http.StatusInternalServerError
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
