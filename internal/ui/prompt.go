package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/thesavant42/adarchive/internal/api"
	"github.com/thesavant42/adarchive/internal/models"
)

// sanitizeInput removes null bytes and other invisible control characters from input
func sanitizeInput(s string) string {
	result := strings.Map(func(r rune) rune {
		// Keep printable characters and normal whitespace (space, tab, newline)
		if r == 0 || (r < 32 && r != '\t' && r != '\n' && r != '\r') {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(result)
}

// PromptForMissing asks for whichever required search parameters are still empty
func PromptForMissing(cfg *api.TraversalConfig) error {
	var fields []huh.Field
	var fieldList string

	if cfg.AccessToken == "" {
		fields = append(fields, huh.NewInput().
			Title("Access Token").
			Description("Graph API token with ads_read permission (not stored)").
			EchoMode(huh.EchoModePassword).
			Value(&cfg.AccessToken).
			Validate(notEmpty("access token")))
	}
	if cfg.SearchTerm == "" {
		fields = append(fields, huh.NewInput().
			Title("Search Term").
			Description("Keywords to search the ad archive for").
			Placeholder("election").
			Value(&cfg.SearchTerm).
			Validate(notEmpty("search term")))
	}
	if len(cfg.Fields) == 0 {
		fieldList = "id,ad_snapshot_url,ad_delivery_start_time,page_name"
		fields = append(fields, huh.NewInput().
			Title("Fields").
			Description("Comma-separated ad fields to request").
			Value(&fieldList).
			Validate(func(s string) error {
				if len(api.ParseFields(s)) == 0 {
					return fmt.Errorf("at least one field is required")
				}
				return nil
			}))
	}
	if len(fields) == 0 {
		return nil
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(NewAppTheme())
	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt cancelled: %w", err)
	}

	cfg.AccessToken = sanitizeInput(cfg.AccessToken)
	cfg.SearchTerm = sanitizeInput(cfg.SearchTerm)
	if fieldList != "" {
		cfg.Fields = api.ParseFields(sanitizeInput(fieldList))
	}
	return nil
}

// ConfirmResume asks whether to continue an unfinished run instead of starting over
func ConfirmResume(cp *models.Checkpoint) (bool, error) {
	var resume bool

	description := fmt.Sprintf("%d pages / %d ads fetched, last updated %s",
		cp.Pages, cp.Records, cp.UpdatedAt.Format("2006-01-02 15:04"))
	if cp.LastError != "" {
		description += "\nLast error: " + cp.LastError
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Resume unfinished run for %q?", cp.SearchTerm)).
				Description(description).
				Affirmative("Resume").
				Negative("Start over").
				Value(&resume),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return resume, nil
}

func notEmpty(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		return nil
	}
}
