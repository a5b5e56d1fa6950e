package api

import (
	"errors"
	"fmt"
)

// TransportError indicates the HTTP request itself failed (connection, DNS, timeout)
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError indicates a response body that is not a JSON object
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("failed to decode response: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PermanentAPIError is returned once the same URL has produced an API-level error
// retryLimit consecutive times. Payload is the serialized "error" entry.
type PermanentAPIError struct {
	URL      string
	Payload  string
	Attempts int
}

func (e *PermanentAPIError) Error() string {
	return fmt.Sprintf("Error message: [%s], failed on URL: [%s]", e.Payload, e.URL)
}

// ExtractionError indicates an ad_snapshot_url without a "?id=<digits>" component
type ExtractionError struct {
	Value string
}

func (e *ExtractionError) Error() string {
	if e.Value == "" {
		return "no ad archive id: ad_snapshot_url missing"
	}
	return fmt.Sprintf("no ad archive id in %q", e.Value)
}

// DateFormatError indicates a delivery date that is not a YYYY-MM-DD string
type DateFormatError struct {
	Value any
	Err   error
}

func (e *DateFormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid delivery date %v: expected YYYY-MM-DD string", e.Value)
	}
	return fmt.Sprintf("invalid delivery date %v: %v", e.Value, e.Err)
}

func (e *DateFormatError) Unwrap() error {
	return e.Err
}

// ResumeURL returns the URL a failed traversal can be restarted from, if the error carries one
func ResumeURL(err error) (string, bool) {
	var permanent *PermanentAPIError
	if errors.As(err, &permanent) {
		return permanent.URL, true
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.URL, true
	}
	var decode *DecodeError
	if errors.As(err, &decode) && decode.URL != "" {
		return decode.URL, true
	}
	return "", false
}
