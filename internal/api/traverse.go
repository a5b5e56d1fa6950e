package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/adarchive/internal/models"
	"golang.org/x/net/publicsuffix"
)

// Traverser walks ads_archive result pages by following the paging.next cursor.
// It keeps no per-traversal state, so one Traverser can drive independent traversals.
type Traverser struct {
	fetcher Fetcher
	logger  *log.Logger

	// APIHost is the host cursor URLs passed to ResumeFromURL must belong to
	APIHost string
}

// NewTraverser creates a traverser using fetcher for every page request
func NewTraverser(fetcher Fetcher, logger *log.Logger) *Traverser {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Traverser{
		fetcher: fetcher,
		logger:  logger,
		APIHost: DefaultHost,
	}
}

// traversalState is the mutable state of one traversal run
type traversalState struct {
	cursor       string
	lastErrorURL string
	retryCount   int
}

// recordAPIError notes an API-level error on the current cursor and returns
// how many consecutive times that URL has now failed.
func (s *traversalState) recordAPIError() int {
	if s.cursor == s.lastErrorURL {
		s.retryCount++
	} else {
		s.lastErrorURL = s.cursor
		s.retryCount = 1
	}
	return s.retryCount
}

func (s *traversalState) clearAPIError() {
	s.lastErrorURL = ""
	s.retryCount = 0
}

// Generate validates cfg, builds the seed URL and traverses from it
func (t *Traverser) Generate(ctx context.Context, cfg TraversalConfig) iter.Seq2[models.Batch, error] {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return failed(fmt.Errorf("invalid traversal config: %w", err))
	}
	window, err := cfg.Window()
	if err != nil {
		return failed(err)
	}
	return t.Traverse(ctx, BuildArchiveURL(cfg), window, cfg.RetryLimit)
}

// ResumeFromURL restarts a traversal from a cursor URL saved from an earlier run,
// typically the URL reported by a failed one. Only the minimum delivery date applies
// and the default retry limit is used.
func (t *Traverser) ResumeFromURL(ctx context.Context, cursorURL, minDate string) iter.Seq2[models.Batch, error] {
	return t.ResumeFromURLWithWindow(ctx, cursorURL, minDate, "")
}

// ResumeFromURLWithWindow is ResumeFromURL with an optional maximum delivery date
func (t *Traverser) ResumeFromURLWithWindow(ctx context.Context, cursorURL, minDate, maxDate string) iter.Seq2[models.Batch, error] {
	if minDate == "" {
		minDate = DefaultDeliveryDateMin
	}
	if err := ValidateCursorURL(cursorURL, t.APIHost); err != nil {
		return failed(err)
	}
	window, err := NewDateWindow(minDate, maxDate)
	if err != nil {
		return failed(err)
	}
	t.logger.Info("Resuming traversal", "cursor", redactToken(cursorURL), "minDate", minDate, "maxDate", maxDate)
	return t.Traverse(ctx, cursorURL, window, DefaultRetryLimit)
}

// Traverse returns a lazy sequence of filtered batches starting at seedURL.
//
// Each iteration fetches one page, then:
//   - on an API-level error, re-fetches the same URL immediately; the retryLimit-th
//     consecutive error on one URL ends the sequence with *PermanentAPIError
//   - otherwise filters the page by window; an empty result ends the sequence,
//     a non-empty one is yielded and the cursor advances to paging.next
//
// Transport, decode and date-format errors end the sequence at once. An error is
// always the last element. Breaking out of the range loop stops fetching.
func (t *Traverser) Traverse(ctx context.Context, seedURL string, window models.DateWindow, retryLimit int) iter.Seq2[models.Batch, error] {
	return func(yield func(models.Batch, error) bool) {
		if retryLimit <= 0 {
			yield(models.Batch{}, fmt.Errorf("retry limit must be positive, got %d", retryLimit))
			return
		}

		state := &traversalState{cursor: seedURL}
		pages := 0

		for state.cursor != "" {
			if err := ctx.Err(); err != nil {
				yield(models.Batch{}, err)
				return
			}

			resp, err := t.fetchPage(ctx, state.cursor)
			if err != nil {
				yield(models.Batch{}, err)
				return
			}

			if resp.HasError() {
				attempts := state.recordAPIError()
				payload := compactPayload(resp.Error)
				if attempts >= retryLimit {
					t.logger.Error("API error retry limit reached", "url", redactToken(state.cursor), "attempts", attempts, "error", payload)
					yield(models.Batch{}, &PermanentAPIError{URL: state.cursor, Payload: payload, Attempts: attempts})
					return
				}
				t.logger.Warn("API error, retrying", "url", redactToken(state.cursor), "attempt", attempts, "retryLimit", retryLimit, "error", payload)
				continue
			}
			state.clearAPIError()

			filtered, err := FilterByDeliveryDate(resp.Data, window)
			if err != nil {
				yield(models.Batch{}, fmt.Errorf("failed to filter page %s: %w", redactToken(state.cursor), err))
				return
			}
			if len(filtered) == 0 {
				t.logger.Info("Delivery window exhausted", "pages", pages, "pageRecords", len(resp.Data))
				return
			}

			pages++
			batch := models.Batch{
				Records: filtered,
				PageURL: state.cursor,
				NextURL: resp.NextURL(),
				Page:    pages,
			}
			t.logger.Info("Page fetched", "page", pages, "pageRecords", len(resp.Data), "kept", len(filtered), "hasMore", batch.NextURL != "")

			if !yield(batch, nil) {
				return
			}
			state.cursor = batch.NextURL
		}

		t.logger.Info("Pagination cursor exhausted", "pages", pages)
	}
}

// fetchPage fetches and decodes one page, tagging failures with the URL
func (t *Traverser) fetchPage(ctx context.Context, pageURL string) (*models.Page, error) {
	body, err := t.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		var transport *TransportError
		if errors.As(err, &transport) {
			return nil, err
		}
		return nil, &TransportError{URL: pageURL, Err: err}
	}

	page, err := DecodePage(body)
	if err != nil {
		var decode *DecodeError
		if errors.As(err, &decode) {
			decode.URL = pageURL
		}
		return nil, err
	}
	return page, nil
}

// ValidateCursorURL checks that a cursor is an absolute http(s) URL on the API's registrable domain
func ValidateCursorURL(cursorURL, apiHost string) error {
	u, err := url.Parse(strings.TrimSpace(cursorURL))
	if err != nil {
		return fmt.Errorf("invalid cursor URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("invalid cursor URL %q: scheme must be http or https", redactToken(cursorURL))
	}
	if u.Hostname() == "" {
		return fmt.Errorf("invalid cursor URL %q: missing host", redactToken(cursorURL))
	}
	if apiHost == "" || strings.EqualFold(u.Hostname(), hostOnly(apiHost)) {
		return nil
	}

	cursorRoot, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return fmt.Errorf("invalid cursor host %q: %w", u.Hostname(), err)
	}
	apiRoot, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(hostOnly(apiHost)))
	if err != nil {
		return fmt.Errorf("invalid API host %q: %w", apiHost, err)
	}
	if cursorRoot != apiRoot {
		return fmt.Errorf("cursor host %q does not belong to %s", u.Hostname(), apiRoot)
	}
	return nil
}

// hostOnly strips a port from host[:port]
func hostOnly(host string) string {
	return (&url.URL{Host: host}).Hostname()
}

func compactPayload(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// failed returns a sequence whose only element is err
func failed(err error) iter.Seq2[models.Batch, error] {
	return func(yield func(models.Batch, error) bool) {
		yield(models.Batch{}, err)
	}
}
