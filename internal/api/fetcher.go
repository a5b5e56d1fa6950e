package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/codeGROOVE-dev/retry"
	"github.com/thesavant42/adarchive/internal/models"
)

const archiveUserAgent = "adarchive/1.0"

// Fetcher performs a GET against a URL and returns the raw response body
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages over HTTP.
// Non-2xx responses are not errors here: the Graph API reports API-level errors
// in a JSON body alongside 4xx/5xx codes, and the traversal decides what to do with them.
type HTTPFetcher struct {
	httpClient *http.Client
	logger     *log.Logger

	// TransportRetries is how many extra immediate attempts a transport failure gets.
	// Zero means a failed request surfaces right away.
	TransportRetries int
}

// NewHTTPFetcher creates a fetcher. No client timeout is set; bound requests with the context.
func NewHTTPFetcher(logger *log.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// NewHTTPFetcherWithClient creates a fetcher around an existing client (tests, custom transports)
func NewHTTPFetcherWithClient(client *http.Client, logger *log.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPFetcher{
		httpClient: client,
		logger:     logger,
	}
}

// WithTimeout sets a per-request client timeout and returns the fetcher
func (f *HTTPFetcher) WithTimeout(timeout time.Duration) *HTTPFetcher {
	f.httpClient.Timeout = timeout
	return f
}

// Fetch GETs pageURL and returns the body. Failures to reach the server or read the body are *TransportError.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	var body []byte

	attempts := f.TransportRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			var err error
			body, err = f.fetchOnce(ctx, pageURL)
			return err
		},
		retry.Attempts(uint(attempts)),
		retry.Delay(0),
		retry.MaxDelay(time.Millisecond),
		retry.MaxJitter(time.Millisecond),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			if f.logger != nil {
				f.logger.Warn("Transport error, retrying", "url", redactToken(pageURL), "attempt", n+1, "error", err)
			}
		}),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil
		}),
	)
	if err != nil {
		return nil, &TransportError{URL: pageURL, Err: err}
	}
	return body, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", archiveUserAgent)
	req.Header.Set("Accept", "application/json")

	if f.logger != nil {
		f.logger.Debug("GET", "endpoint", redactToken(pageURL))
	}

	startTime := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if f.logger != nil {
		f.logger.Debug("Response", "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(startTime))
		if resp.StatusCode != http.StatusOK {
			f.logger.Warn("Non-OK status from ads_archive", "status", resp.StatusCode)
		}
	}

	return body, nil
}

// DecodePage parses a response body into a Page. The body must be a JSON object.
func DecodePage(body []byte) (*models.Page, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &DecodeError{Err: fmt.Errorf("expected JSON object, got %q", truncate(string(trimmed), 64))}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var page models.Page
	if err := dec.Decode(&page); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &page, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
