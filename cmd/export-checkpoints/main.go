package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/thesavant42/adarchive/internal/config"
	"github.com/thesavant42/adarchive/internal/db"
)

func main() {
	dbPath := flag.String("db", config.DefaultDBPath, "Path to SQLite database")
	outputPath := flag.String("output", "checkpoints.csv", "Output CSV file")
	prune := flag.Bool("prune-complete", false, "Delete completed runs after exporting")
	flag.Parse()

	database, err := db.New(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	checkpoints, err := database.ListCheckpoints()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query database: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"run_id", "search_term", "country", "min_date", "max_date", "pages", "records", "complete", "last_error", "updated_at"}
	if err := w.Write(header); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write header: %v\n", err)
		os.Exit(1)
	}

	count, pruned := 0, 0
	for _, cp := range checkpoints {
		row := []string{
			cp.RunID,
			cp.SearchTerm,
			cp.Country,
			cp.MinDate,
			cp.MaxDate,
			strconv.Itoa(cp.Pages),
			strconv.Itoa(cp.Records),
			strconv.FormatBool(cp.IsComplete),
			cp.LastError,
			cp.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write row: %v\n", err)
			continue
		}
		count++

		if *prune && cp.IsComplete {
			if err := database.DeleteCheckpoint(cp.RunID); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to delete run %s: %v\n", cp.RunID, err)
				continue
			}
			pruned++
		}
	}

	fmt.Printf("Exported %d checkpoints to %s\n", count, *outputPath)
	if *prune {
		fmt.Printf("Pruned %d completed runs\n", pruned)
	}
}
