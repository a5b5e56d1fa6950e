package models

import (
	"encoding/json"
	"time"
)

// Field names the traversal and its helpers inspect on a Record
const (
	FieldDeliveryStartTime = "ad_delivery_start_time"
	FieldSnapshotURL       = "ad_snapshot_url"
)

// Record is one ad archive entry as returned by the API.
// Only ad_delivery_start_time is inspected by the traversal; everything else passes through untouched.
type Record map[string]any

// Paging holds the pagination metadata of a page
type Paging struct {
	Next     string          `json:"next,omitempty"`
	Previous string          `json:"previous,omitempty"`
	Cursors  json.RawMessage `json:"cursors,omitempty"`
}

// Page is one decoded ads_archive response
type Page struct {
	Data   []Record        `json:"data"`
	Paging *Paging         `json:"paging,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// HasError reports whether the response carried an API-level "error" entry
func (p *Page) HasError() bool {
	return len(p.Error) > 0 && string(p.Error) != "null"
}

// NextURL returns the cursor for the following page, or "" when traversal should stop
func (p *Page) NextURL() string {
	if p.Paging == nil {
		return ""
	}
	return p.Paging.Next
}

// Batch is one element of a traversal: the filtered records of a single page
// plus the cursor metadata needed to checkpoint after it.
type Batch struct {
	Records []Record
	PageURL string // URL that produced this batch
	NextURL string // cursor for the following page ("" when this is the last batch)
	Page    int    // 1-based page counter within this traversal run
}

// DateWindow is the inclusive delivery window used to retain records.
// Max is nil when the window is unbounded above.
type DateWindow struct {
	Min time.Time
	Max *time.Time
}

// Contains reports whether t falls inside the window (both bounds inclusive)
func (w DateWindow) Contains(t time.Time) bool {
	if t.Before(w.Min) {
		return false
	}
	if w.Max != nil && t.After(*w.Max) {
		return false
	}
	return true
}

// Checkpoint records how far a traversal run got, so an interrupted run can be resumed
type Checkpoint struct {
	RunID      string
	SearchTerm string
	Country    string
	CursorURL  string // next URL to fetch; "" once the run completed
	MinDate    string
	MaxDate    string
	Pages      int
	Records    int
	IsComplete bool
	LastError  string
	UpdatedAt  time.Time
}
