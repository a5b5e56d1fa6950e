package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPFetcherReturnsBodyForAnyStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"ok", http.StatusOK, `{"data":[]}`},
		{"api error", http.StatusBadRequest, apiErrorBody},
		{"server error", http.StatusInternalServerError, `{"error":{"code":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("method = %s, want GET", r.Method)
				}
				if ua := r.Header.Get("User-Agent"); ua != archiveUserAgent {
					t.Errorf("User-Agent = %q", ua)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			body, err := NewHTTPFetcher(nil).Fetch(context.Background(), srv.URL+"/v14.0/ads_archive")
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if string(body) != tt.body {
				t.Errorf("Fetch() = %q, want %q", body, tt.body)
			}
		})
	}
}

// flakyTransport fails the first n round trips
type flakyTransport struct {
	failures int
	calls    int
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	return f.next.RoundTrip(req)
}

func TestHTTPFetcherTransportRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	tests := []struct {
		name      string
		failures  int
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{"no retries surfaces failure", 1, 0, true, 1},
		{"retry recovers", 2, 2, false, 3},
		{"retries exhausted", 5, 2, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &flakyTransport{failures: tt.failures, next: http.DefaultTransport}
			f := NewHTTPFetcherWithClient(&http.Client{Transport: transport}, nil)
			f.TransportRetries = tt.retries

			_, err := f.Fetch(context.Background(), srv.URL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fetch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var transportErr *TransportError
				if !errors.As(err, &transportErr) || transportErr.URL != srv.URL {
					t.Errorf("error = %v, want *TransportError for %s", err, srv.URL)
				}
			}
			if transport.calls != tt.wantCalls {
				t.Errorf("round trips = %d, want %d", transport.calls, tt.wantCalls)
			}
		})
	}
}

func TestHTTPFetcherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(nil).Fetch(context.Background(), addr)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}

func TestDecodePage(t *testing.T) {
	page, err := DecodePage([]byte(`{
		"data": [{"id": "1", "ad_delivery_start_time": "2022-01-01", "spend": {"lower_bound": "100"}, "impressions_rank": 12}],
		"paging": {"cursors": {"after": "QVFI"}, "next": "https://graph.facebook.com/v14.0/ads_archive?after=QVFI"}
	}`))
	if err != nil {
		t.Fatalf("DecodePage() error = %v", err)
	}
	if page.HasError() {
		t.Error("HasError() = true for a data page")
	}
	if len(page.Data) != 1 || page.Data[0]["id"] != "1" {
		t.Errorf("Data = %v", page.Data)
	}
	if got := fmt.Sprint(page.Data[0]["impressions_rank"]); got != "12" {
		t.Errorf("numeric field decoded as %q, want 12", got)
	}
	if page.NextURL() != "https://graph.facebook.com/v14.0/ads_archive?after=QVFI" {
		t.Errorf("NextURL() = %q", page.NextURL())
	}

	last, err := DecodePage([]byte(`{"data": []}`))
	if err != nil {
		t.Fatalf("DecodePage() error = %v", err)
	}
	if last.NextURL() != "" {
		t.Errorf("NextURL() without paging = %q, want empty", last.NextURL())
	}

	errPage, err := DecodePage([]byte(apiErrorBody))
	if err != nil {
		t.Fatalf("DecodePage() error = %v", err)
	}
	if !errPage.HasError() {
		t.Error("HasError() = false for an error page")
	}
	if !strings.Contains(compactPayload(errPage.Error), `"code":1`) {
		t.Errorf("compactPayload() = %s", compactPayload(errPage.Error))
	}
}

func TestDecodePageErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"html", "<html></html>"},
		{"array", `[{"data": []}]`},
		{"truncated", `{"data": [`},
		{"wrong data type", `{"data": "nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePage([]byte(tt.body))
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("DecodePage(%q) error = %v, want *DecodeError", tt.body, err)
			}
		})
	}
}
