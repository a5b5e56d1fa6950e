// Debug tool to fetch and decode a single ads_archive page directly
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/thesavant42/adarchive/internal/api"
	"github.com/thesavant42/adarchive/internal/config"
	"github.com/thesavant42/adarchive/internal/models"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config file")
	pageURL := flag.String("url", "", "Fetch this cursor URL instead of the first page of the configured search")
	show := flag.Int("show", 3, "Number of records to print")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	tc := cfg.Traversal()
	if flag.NArg() > 0 {
		tc.SearchTerm = flag.Arg(0)
	}

	target := *pageURL
	if target == "" {
		if err := tc.Validate(); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
		target = api.BuildArchiveURL(tc)
	}
	fmt.Printf("Testing ads_archive fetch for search: %q\n", tc.SearchTerm)

	fetcher := api.NewHTTPFetcher(logger)
	fetcher.TransportRetries = cfg.API.TransportRetries

	var page *models.Page
	var fetchErr error
	err = spinner.New().
		Title("Fetching page...").
		Action(func() {
			var body []byte
			body, fetchErr = fetcher.Fetch(context.Background(), target)
			if fetchErr == nil {
				page, fetchErr = api.DecodePage(body)
			}
		}).
		Run()
	if err == nil {
		err = fetchErr
	}
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	if page.HasError() {
		fmt.Printf("API error: %s\n", string(page.Error))
		os.Exit(1)
	}

	fmt.Printf("Records: %d\n", len(page.Data))
	fmt.Printf("HasNext: %v\n", page.NextURL() != "")

	window, err := tc.Window()
	if err == nil {
		kept, filterErr := api.FilterByDeliveryDate(page.Data, window)
		if filterErr != nil {
			fmt.Printf("Filter error: %v\n", filterErr)
		} else {
			fmt.Printf("In window %s..%s: %d\n", tc.DeliveryDateMin, tc.DeliveryDateMax, len(kept))
		}
	}

	fmt.Println("\nFirst records:")
	for i, rec := range page.Data {
		if i >= *show {
			fmt.Printf("  ... and %d more\n", len(page.Data)-*show)
			break
		}
		id, idErr := api.ExtractAdArchiveID(rec)
		if idErr != nil {
			id = "?"
		}
		raw, _ := json.Marshal(rec)
		fmt.Printf("  %d. id=%s delivery=%v\n     %s\n", i+1, id, rec[models.FieldDeliveryStartTime], raw)
	}
}
