package ui

import (
	"testing"

	"github.com/thesavant42/adarchive/internal/models"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "election", "election"},
		{"trims whitespace", "  climate policy \n", "climate policy"},
		{"drops null bytes", "tok\x00en", "token"},
		{"drops control chars", "\x1b[Aads", "[Aads"},
		{"keeps inner tab", "a\tb", "a\tb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.input); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNotEmpty(t *testing.T) {
	validate := notEmpty("search term")
	if err := validate("   "); err == nil {
		t.Error("notEmpty accepted blank input")
	}
	if err := validate("x"); err != nil {
		t.Errorf("notEmpty(x) error = %v", err)
	}
}

func TestDateSpan(t *testing.T) {
	records := []models.Record{
		{models.FieldDeliveryStartTime: "2023-05-01"},
		{},
		{models.FieldDeliveryStartTime: "2023-04-20"},
	}
	first, last := dateSpan(records)
	if first != "2023-05-01" || last != "2023-04-20" {
		t.Errorf("dateSpan() = %q, %q", first, last)
	}

	if first, last := dateSpan(nil); first != "" || last != "" {
		t.Errorf("dateSpan(nil) = %q, %q", first, last)
	}
}
