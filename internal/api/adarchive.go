package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/thesavant42/adarchive/internal/models"
)

// Defaults for a traversal; any zero-valued TraversalConfig field falls back to these
const (
	DefaultHost            = "graph.facebook.com"
	DefaultAPIVersion      = "v14.0"
	DefaultCountry         = "TW"
	DefaultAdActiveStatus  = "ALL"
	DefaultDeliveryDateMin = "2022-01-01"
	DefaultPageLimit       = 500
	DefaultRetryLimit      = 3
)

// TraversalConfig describes one ads_archive search. Build it once, then treat it as read-only:
// Generate works on its own copy.
type TraversalConfig struct {
	AccessToken     string
	Fields          []string
	SearchTerm      string
	Country         string
	SearchPageIDs   string // comma-separated page IDs, empty for no restriction
	AdActiveStatus  string
	DeliveryDateMin string // YYYY-MM-DD
	DeliveryDateMax string // YYYY-MM-DD, empty for unbounded
	PageLimit       int
	APIVersion      string
	RetryLimit      int
	Host            string
}

// NewTraversalConfig returns a config for the required parameters with every optional one defaulted
func NewTraversalConfig(accessToken string, fields []string, searchTerm string) TraversalConfig {
	return TraversalConfig{
		AccessToken: accessToken,
		Fields:      fields,
		SearchTerm:  searchTerm,
	}.WithDefaults()
}

// WithDefaults returns a copy of the config with zero-valued optional fields set to their defaults
func (c TraversalConfig) WithDefaults() TraversalConfig {
	if c.Country == "" {
		c.Country = DefaultCountry
	}
	if c.AdActiveStatus == "" {
		c.AdActiveStatus = DefaultAdActiveStatus
	}
	if c.DeliveryDateMin == "" {
		c.DeliveryDateMin = DefaultDeliveryDateMin
	}
	if c.PageLimit == 0 {
		c.PageLimit = DefaultPageLimit
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.RetryLimit == 0 {
		c.RetryLimit = DefaultRetryLimit
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	c.Fields = append([]string(nil), c.Fields...)
	return c
}

// Validate checks the required parameters and the delivery window
func (c TraversalConfig) Validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return fmt.Errorf("access token is required")
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("at least one field is required")
	}
	if strings.TrimSpace(c.SearchTerm) == "" {
		return fmt.Errorf("search term is required")
	}
	if c.PageLimit <= 0 {
		return fmt.Errorf("page limit must be positive, got %d", c.PageLimit)
	}
	if c.RetryLimit <= 0 {
		return fmt.Errorf("retry limit must be positive, got %d", c.RetryLimit)
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	return nil
}

// Window parses the configured delivery dates into a DateWindow
func (c TraversalConfig) Window() (models.DateWindow, error) {
	return NewDateWindow(c.DeliveryDateMin, c.DeliveryDateMax)
}

// BuildArchiveURL constructs the seed URL for the ads_archive endpoint.
// Every parameter value is query-escaped.
func BuildArchiveURL(cfg TraversalConfig) string {
	params := url.Values{}
	params.Set("access_token", cfg.AccessToken)
	params.Set("fields", strings.Join(cfg.Fields, ","))
	params.Set("search_terms", cfg.SearchTerm)
	params.Set("ad_reached_countries", cfg.Country)
	params.Set("search_page_ids", cfg.SearchPageIDs)
	params.Set("ad_active_status", cfg.AdActiveStatus)
	params.Set("limit", strconv.Itoa(cfg.PageLimit))

	u := &url.URL{
		Scheme:   "https",
		Host:     cfg.Host,
		Path:     "/" + strings.Trim(cfg.APIVersion, "/") + "/ads_archive",
		RawQuery: params.Encode(),
	}
	return u.String()
}

// ParseFields splits a comma-separated field list, dropping blanks
func ParseFields(s string) []string {
	var fields []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// redactToken masks the access_token query parameter so URLs can be logged
func redactToken(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Get("access_token") == "" {
		return rawURL
	}
	q.Set("access_token", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
