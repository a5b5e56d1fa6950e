package api

import (
	"regexp"

	"github.com/thesavant42/adarchive/internal/models"
)

var archiveIDPattern = regexp.MustCompile(`\?id=([0-9]+)`)

// ExtractIDFromSnapshotURL pulls the ad archive ID out of an ad_snapshot_url
// Example: "https://www.facebook.com/ads/library/?id=123456789" -> "123456789"
func ExtractIDFromSnapshotURL(snapshotURL string) (string, error) {
	matches := archiveIDPattern.FindStringSubmatch(snapshotURL)
	if len(matches) < 2 {
		return "", &ExtractionError{Value: snapshotURL}
	}
	return matches[1], nil
}

// ExtractAdArchiveID returns the ad archive ID of a record from its ad_snapshot_url
func ExtractAdArchiveID(record models.Record) (string, error) {
	snapshotURL, _ := record[models.FieldSnapshotURL].(string)
	if snapshotURL == "" {
		return "", &ExtractionError{}
	}
	return ExtractIDFromSnapshotURL(snapshotURL)
}
