package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/thesavant42/adarchive/internal/api"
	"github.com/thesavant42/adarchive/internal/models"
)

// Everything here prints to stderr; stdout is reserved for exported records.

// PrintHeader prints a styled header describing the search about to run
func PrintHeader(cfg api.TraversalConfig) {
	window := cfg.DeliveryDateMin + " .. "
	if cfg.DeliveryDateMax != "" {
		window += cfg.DeliveryDateMax
	} else {
		window += "open"
	}

	lines := []string{
		TitleStyle.Render(fmt.Sprintf("Ad Archive search: %q", cfg.SearchTerm)),
		fmt.Sprintf("%s %s", HintStyle.Render("Country:"), AccentStyle.Render(cfg.Country)),
		fmt.Sprintf("%s %s", HintStyle.Render("Delivery window:"), AccentStyle.Render(window)),
		fmt.Sprintf("%s %s", HintStyle.Render("Active status:"), RenderNormal(cfg.AdActiveStatus)),
		fmt.Sprintf("%s %s", HintStyle.Render("Fields:"), RenderNormal(strings.Join(cfg.Fields, ", "))),
	}
	if cfg.SearchPageIDs != "" {
		lines = append(lines, fmt.Sprintf("%s %s", HintStyle.Render("Page IDs:"), RenderNormal(cfg.SearchPageIDs)))
	}

	fmt.Fprintln(os.Stderr, BorderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

// FormatBatch renders a one-line summary of a yielded batch with its delivery date span
func FormatBatch(batch models.Batch) string {
	first, last := dateSpan(batch.Records)
	msg := fmt.Sprintf("Page %d: %d ads", batch.Page, len(batch.Records))
	if first != "" {
		msg += fmt.Sprintf(" (%s .. %s)", last, first)
	}
	return ProgressStyle.Render(msg)
}

// PrintSummary prints totals after a traversal ends
func PrintSummary(pages, records int, complete bool) {
	state := "window exhausted"
	if !complete {
		state = "stopped early"
	}
	fmt.Fprintln(os.Stderr, InfoStyle.Italic(true).Render(
		fmt.Sprintf("Summary: %d ads across %d pages (%s)", records, pages, state)))
}

// PrintResumeHint tells the user how to continue a failed run
func PrintResumeHint(runID, resumeURL string) {
	fmt.Fprintln(os.Stderr, HintStyle.Render("Resume this run with:"))
	fmt.Fprintln(os.Stderr, AccentStyle.Render("  adarchive -resume-run "+runID))
	if resumeURL != "" {
		fmt.Fprintln(os.Stderr, HintStyle.Render("or from the failing cursor:"))
		fmt.Fprintln(os.Stderr, AccentStyle.Render("  adarchive -resume-url '"+resumeURL+"'"))
	}
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintln(os.Stderr, SuccessStyle.Render(message))
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintln(os.Stderr, AccentStyle.Render("Warning: "+message))
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+message))
}

// dateSpan returns the first and last delivery dates of a batch in page order
func dateSpan(records []models.Record) (first, last string) {
	for _, r := range records {
		d, _ := r[models.FieldDeliveryStartTime].(string)
		if d == "" {
			continue
		}
		if first == "" {
			first = d
		}
		last = d
	}
	return first, last
}
