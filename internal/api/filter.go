package api

import (
	"fmt"
	"time"

	"github.com/thesavant42/adarchive/internal/models"
)

// deliveryDateLayout is the format of ad_delivery_start_time and of the configured window bounds
const deliveryDateLayout = "2006-01-02"

// ParseDeliveryDate parses a YYYY-MM-DD date to midnight UTC.
// Window bounds and record dates both go through here so they share one reference zone.
func ParseDeliveryDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(deliveryDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, &DateFormatError{Value: s, Err: err}
	}
	return t, nil
}

// NewDateWindow builds a window from a required minimum and an optional maximum ("" = unbounded)
func NewDateWindow(minDate, maxDate string) (models.DateWindow, error) {
	lower, err := ParseDeliveryDate(minDate)
	if err != nil {
		return models.DateWindow{}, fmt.Errorf("invalid minimum delivery date: %w", err)
	}
	window := models.DateWindow{Min: lower}
	if maxDate == "" {
		return window, nil
	}

	upper, err := ParseDeliveryDate(maxDate)
	if err != nil {
		return models.DateWindow{}, fmt.Errorf("invalid maximum delivery date: %w", err)
	}
	if upper.Before(lower) {
		return models.DateWindow{}, fmt.Errorf("maximum delivery date %s is before minimum %s", maxDate, minDate)
	}
	window.Max = &upper
	return window, nil
}

// FilterByDeliveryDate returns the records whose ad_delivery_start_time lies inside the window,
// in input order. Records without the field are dropped; a field that is present but not a
// YYYY-MM-DD string is an error.
func FilterByDeliveryDate(records []models.Record, window models.DateWindow) ([]models.Record, error) {
	filtered := make([]models.Record, 0, len(records))
	for _, record := range records {
		raw, ok := record[models.FieldDeliveryStartTime]
		if !ok || raw == nil {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return nil, &DateFormatError{Value: raw}
		}
		startTime, err := ParseDeliveryDate(value)
		if err != nil {
			return nil, err
		}
		if window.Contains(startTime) {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}
