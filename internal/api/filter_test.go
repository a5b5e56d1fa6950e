package api

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/thesavant42/adarchive/internal/models"
)

func records(dates ...string) []models.Record {
	out := make([]models.Record, 0, len(dates))
	for _, d := range dates {
		r := models.Record{"page_name": "page-" + d}
		if d != "" {
			r[models.FieldDeliveryStartTime] = d
		}
		out = append(out, r)
	}
	return out
}

// TestFilterByDeliveryDate covers the inclusive window bounds
func TestFilterByDeliveryDate(t *testing.T) {
	tests := []struct {
		name    string
		minDate string
		maxDate string
		input   []string
		want    []string
	}{
		{
			name:    "lower bound inclusive",
			minDate: "2022-01-01",
			input:   []string{"2022-01-01", "2021-12-31"},
			want:    []string{"2022-01-01"},
		},
		{
			name:    "upper bound inclusive",
			minDate: "2022-01-01",
			maxDate: "2022-01-31",
			input:   []string{"2022-01-31", "2022-02-01", "2022-01-15"},
			want:    []string{"2022-01-31", "2022-01-15"},
		},
		{
			name:    "unbounded above",
			minDate: "2022-01-01",
			input:   []string{"2030-06-01", "2022-01-02"},
			want:    []string{"2030-06-01", "2022-01-02"},
		},
		{
			name:    "missing date excluded",
			minDate: "2022-01-01",
			input:   []string{"", "2022-03-01", ""},
			want:    []string{"2022-03-01"},
		},
		{
			name:    "order preserved, no dedup",
			minDate: "2022-01-01",
			input:   []string{"2022-05-01", "2022-02-01", "2022-05-01", "2022-03-01"},
			want:    []string{"2022-05-01", "2022-02-01", "2022-05-01", "2022-03-01"},
		},
		{
			name:    "single-day window",
			minDate: "2022-01-31",
			maxDate: "2022-01-31",
			input:   []string{"2022-01-30", "2022-01-31", "2022-02-01"},
			want:    []string{"2022-01-31"},
		},
		{
			name:    "nothing in window",
			minDate: "2022-01-01",
			input:   []string{"2021-01-01", ""},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := mustWindow(t, tt.minDate, tt.maxDate)
			got, err := FilterByDeliveryDate(records(tt.input...), window)
			if err != nil {
				t.Fatalf("FilterByDeliveryDate() error = %v", err)
			}
			if dates := deliveryDates(got); !reflect.DeepEqual(dates, tt.want) {
				t.Errorf("FilterByDeliveryDate() = %v, want %v", dates, tt.want)
			}
		})
	}
}

func TestFilterByDeliveryDateDoesNotMutateInput(t *testing.T) {
	input := records("2022-02-01", "2021-02-01", "")
	before := make([]models.Record, len(input))
	copy(before, input)

	_, err := FilterByDeliveryDate(input, mustWindow(t, "2022-01-01", ""))
	if err != nil {
		t.Fatalf("FilterByDeliveryDate() error = %v", err)
	}
	if !reflect.DeepEqual(input, before) {
		t.Error("input records were modified")
	}
}

func TestFilterByDeliveryDateInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"wrong layout", "01/31/2022"},
		{"timestamp", "2022-01-31T10:00:00+0000"},
		{"number", 20220131},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := []models.Record{{models.FieldDeliveryStartTime: tt.value}}
			_, err := FilterByDeliveryDate(input, mustWindow(t, "2022-01-01", ""))
			var dateErr *DateFormatError
			if !errors.As(err, &dateErr) {
				t.Errorf("error = %v, want *DateFormatError", err)
			}
		})
	}
}

func TestFilterByDeliveryDateNullIsMissing(t *testing.T) {
	input := []models.Record{{models.FieldDeliveryStartTime: nil}}
	got, err := FilterByDeliveryDate(input, mustWindow(t, "2022-01-01", ""))
	if err != nil || len(got) != 0 {
		t.Errorf("FilterByDeliveryDate(null date) = %v, %v; want empty, nil", got, err)
	}
}

func TestParseDeliveryDate(t *testing.T) {
	got, err := ParseDeliveryDate("2022-01-31")
	if err != nil {
		t.Fatalf("ParseDeliveryDate() error = %v", err)
	}
	want := time.Date(2022, time.January, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDeliveryDate() = %v, want %v", got, want)
	}
}

func TestNewDateWindow(t *testing.T) {
	tests := []struct {
		name    string
		minDate string
		maxDate string
		wantMax bool
		wantErr bool
	}{
		{"min only", "2022-01-01", "", false, false},
		{"min and max", "2022-01-01", "2022-12-31", true, false},
		{"equal bounds", "2022-01-01", "2022-01-01", true, false},
		{"max before min", "2022-02-01", "2022-01-01", false, true},
		{"bad min", "2022-13-01", "", false, true},
		{"empty min", "", "", false, true},
		{"bad max", "2022-01-01", "soon", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewDateWindow(tt.minDate, tt.maxDate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewDateWindow(%q, %q) error = %v, wantErr %v", tt.minDate, tt.maxDate, err, tt.wantErr)
			}
			if err == nil && (w.Max != nil) != tt.wantMax {
				t.Errorf("NewDateWindow(%q, %q).Max = %v, want set=%v", tt.minDate, tt.maxDate, w.Max, tt.wantMax)
			}
		})
	}
}
