package api

import (
	"errors"
	"testing"

	"github.com/thesavant42/adarchive/internal/models"
)

func TestExtractIDFromSnapshotURL(t *testing.T) {
	tests := []struct {
		input   string
		wantID  string
		wantErr bool
	}{
		{"https://example.com/ads/library/?id=123456789", "123456789", false},
		{"https://www.facebook.com/ads/archive/render_ad/?id=987654321&access_token=tok", "987654321", false},
		{"https://example.com/ads/library/?id=42#top", "42", false},
		{"https://example.com/ads/library/?page_id=123", "", true},
		{"https://example.com/ads/library/?id=abc", "", true},
		{"https://example.com/ads/library/", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ExtractIDFromSnapshotURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractIDFromSnapshotURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				var extractionErr *ExtractionError
				if !errors.As(err, &extractionErr) {
					t.Errorf("error = %T, want *ExtractionError", err)
				}
			}
			if got != tt.wantID {
				t.Errorf("ExtractIDFromSnapshotURL(%q) = %q, want %q", tt.input, got, tt.wantID)
			}
		})
	}
}

func TestExtractAdArchiveID(t *testing.T) {
	id, err := ExtractAdArchiveID(models.Record{models.FieldSnapshotURL: "https://www.facebook.com/ads/library/?id=555"})
	if err != nil || id != "555" {
		t.Errorf("ExtractAdArchiveID() = %q, %v; want 555, nil", id, err)
	}

	for _, record := range []models.Record{
		{},
		{models.FieldSnapshotURL: nil},
		{models.FieldSnapshotURL: 12345},
	} {
		_, err := ExtractAdArchiveID(record)
		var extractionErr *ExtractionError
		if !errors.As(err, &extractionErr) {
			t.Errorf("ExtractAdArchiveID(%v) error = %v, want *ExtractionError", record, err)
		}
	}
}
