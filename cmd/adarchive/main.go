package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/thesavant42/adarchive/internal/api"
	"github.com/thesavant42/adarchive/internal/config"
	"github.com/thesavant42/adarchive/internal/db"
	"github.com/thesavant42/adarchive/internal/models"
	"github.com/thesavant42/adarchive/internal/ui"
)

type options struct {
	token            string
	fields           string
	search           string
	country          string
	pageIDs          string
	status           string
	minDate          string
	maxDate          string
	limit            int
	apiVersion       string
	retryLimit       int
	transportRetries int
	configPath       string
	dbPath           string
	output           string
	resumeURL        string
	resumeRun        string
	quiet            bool
	ids              bool
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.token, "token", "", "Graph API access token (or ADARCHIVE_ACCESS_TOKEN)")
	flag.StringVar(&opts.fields, "fields", "", "Comma-separated ad fields to request")
	flag.StringVar(&opts.search, "search", "", "Search terms")
	flag.StringVar(&opts.country, "country", "", "ISO country code to search in (default TW)")
	flag.StringVar(&opts.pageIDs, "page-ids", "", "Comma-separated page IDs to restrict the search to")
	flag.StringVar(&opts.status, "status", "", "Ad active status: ALL, ACTIVE or INACTIVE")
	flag.StringVar(&opts.minDate, "min-date", "", "Earliest delivery start date, YYYY-MM-DD (default 2022-01-01)")
	flag.StringVar(&opts.maxDate, "max-date", "", "Latest delivery start date, YYYY-MM-DD")
	flag.IntVar(&opts.limit, "limit", 0, "Ads per page (default 500)")
	flag.StringVar(&opts.apiVersion, "api-version", "", "Graph API version (default v14.0)")
	flag.IntVar(&opts.retryLimit, "retry-limit", 0, "Consecutive API errors on one page before giving up (default 3)")
	flag.IntVar(&opts.transportRetries, "transport-retries", -1, "Extra attempts for failed HTTP requests")
	flag.StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&opts.dbPath, "db", "", "Path to SQLite checkpoint database")
	flag.StringVar(&opts.output, "output", "", "Write records to this file instead of stdout")
	flag.StringVar(&opts.resumeURL, "resume-url", "", "Resume from a cursor URL reported by a failed run")
	flag.StringVar(&opts.resumeRun, "resume-run", "", "Resume a checkpointed run by ID")
	flag.BoolVar(&opts.quiet, "quiet", false, "No prompts, spinner or progress output")
	flag.BoolVar(&opts.ids, "ids", false, "Write ad archive IDs instead of full records")
	flag.Parse()

	if err := run(opts); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cfg)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "adarchive",
	})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("Unknown log level, using info", "level", cfg.LogLevel)
	}

	interactive := !opts.quiet && isatty.IsTerminal(os.Stderr.Fd())
	if interactive && logger.GetLevel() == log.InfoLevel {
		// per-page info lines would tear through the spinner
		logger.SetLevel(log.WarnLevel)
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fetcher := api.NewHTTPFetcher(logger)
	fetcher.TransportRetries = cfg.API.TransportRetries
	if cfg.API.TimeoutSec > 0 {
		fetcher.WithTimeout(time.Duration(cfg.API.TimeoutSec) * time.Second)
	}

	tc := cfg.Traversal()
	traverser := api.NewTraverser(fetcher, logger)
	traverser.APIHost = tc.Host

	r := &runner{
		db:          database,
		logger:      logger,
		interactive: interactive,
		idsOnly:     opts.ids,
	}

	seq, err := r.plan(ctx, traverser, tc, opts)
	if err != nil {
		return err
	}
	if seq == nil {
		return nil
	}

	out, closeOut, err := openOutput(opts.output, r.resumed)
	if err != nil {
		return err
	}
	defer closeOut()
	r.enc = json.NewEncoder(out)

	if interactive {
		ui.PrintHeader(r.search)
		err = r.consumeWithSpinner(seq, cancel)
	} else {
		err = r.consume(seq)
	}
	return r.finish(err)
}

// apply layers explicitly set flags over the loaded config
func (o options) apply(cfg *config.Config) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.API.AccessToken, o.token)
	override(&cfg.API.Version, o.apiVersion)
	override(&cfg.Search.SearchTerm, o.search)
	override(&cfg.Search.Country, o.country)
	override(&cfg.Search.SearchPageIDs, o.pageIDs)
	override(&cfg.Search.AdActiveStatus, o.status)
	override(&cfg.Search.DeliveryDateMin, o.minDate)
	override(&cfg.Search.DeliveryDateMax, o.maxDate)
	override(&cfg.DBPath, o.dbPath)

	if o.fields != "" {
		cfg.Search.Fields = api.ParseFields(o.fields)
	}
	if o.limit > 0 {
		cfg.Search.PageLimit = o.limit
	}
	if o.retryLimit > 0 {
		cfg.API.RetryLimit = o.retryLimit
	}
	if o.transportRetries >= 0 {
		cfg.API.TransportRetries = o.transportRetries
	}
}

// runner tracks one run's progress and checkpoints it
type runner struct {
	db          *db.DB
	logger      *log.Logger
	interactive bool
	idsOnly     bool
	enc         *json.Encoder

	checkpoint models.Checkpoint
	search     api.TraversalConfig
	resumed    bool
}

// plan decides between a fresh traversal and a resumed one. A nil sequence means there is nothing to do.
func (r *runner) plan(ctx context.Context, t *api.Traverser, tc api.TraversalConfig, opts options) (iter.Seq2[models.Batch, error], error) {
	r.search = tc

	switch {
	case opts.resumeRun != "":
		cp, err := r.db.GetCheckpoint(opts.resumeRun)
		if err != nil {
			return nil, err
		}
		if cp == nil {
			return nil, fmt.Errorf("no checkpoint for run %s", opts.resumeRun)
		}
		if cp.IsComplete || cp.CursorURL == "" {
			ui.PrintSuccess(fmt.Sprintf("Run %s is already complete (%d ads)", cp.RunID, cp.Records))
			return nil, nil
		}
		return r.resume(ctx, t, *cp), nil

	case opts.resumeURL != "":
		r.checkpoint = r.newCheckpoint(tc)
		r.checkpoint.CursorURL = opts.resumeURL
		r.resumed = true
		return t.ResumeFromURLWithWindow(ctx, opts.resumeURL, tc.DeliveryDateMin, tc.DeliveryDateMax), nil
	}

	if r.interactive {
		if err := ui.PromptForMissing(&tc); err != nil {
			return nil, err
		}
		r.search = tc

		cp, err := r.db.GetLatestIncompleteCheckpoint(tc.SearchTerm, tc.Country)
		if err != nil {
			r.logger.Warn("Could not look up unfinished runs", "err", err)
		} else if cp != nil && cp.CursorURL != "" {
			ok, err := ui.ConfirmResume(cp)
			if err != nil {
				return nil, err
			}
			if ok {
				return r.resume(ctx, t, *cp), nil
			}
		}
	}

	if err := tc.Validate(); err != nil {
		return nil, err
	}
	r.checkpoint = r.newCheckpoint(tc)
	r.checkpoint.CursorURL = api.BuildArchiveURL(tc)
	return t.Generate(ctx, tc), nil
}

func (r *runner) resume(ctx context.Context, t *api.Traverser, cp models.Checkpoint) iter.Seq2[models.Batch, error] {
	r.checkpoint = cp
	r.checkpoint.LastError = ""
	r.resumed = true
	r.search.SearchTerm = cp.SearchTerm
	r.search.Country = cp.Country
	r.search.DeliveryDateMin = cp.MinDate
	r.search.DeliveryDateMax = cp.MaxDate
	r.logger.Info("Resuming run", "run", cp.RunID, "pages", cp.Pages, "records", cp.Records)
	return t.ResumeFromURLWithWindow(ctx, cp.CursorURL, cp.MinDate, cp.MaxDate)
}

func (r *runner) newCheckpoint(tc api.TraversalConfig) models.Checkpoint {
	return models.Checkpoint{
		RunID:      uuid.NewString(),
		SearchTerm: tc.SearchTerm,
		Country:    tc.Country,
		MinDate:    tc.DeliveryDateMin,
		MaxDate:    tc.DeliveryDateMax,
	}
}

func (r *runner) consume(seq iter.Seq2[models.Batch, error]) error {
	for batch, err := range seq {
		if err != nil {
			return err
		}
		if err := r.handle(batch); err != nil {
			return err
		}
	}
	return nil
}

// consumeWithSpinner pulls batches under a spinner; ctrl+c cancels the traversal and waits for it to stop
func (r *runner) consumeWithSpinner(seq iter.Seq2[models.Batch, error], cancel context.CancelFunc) error {
	return ui.RunWithSpinner("Fetching ads...", func(report func(string)) error {
		for batch, err := range seq {
			if err != nil {
				return err
			}
			if err := r.handle(batch); err != nil {
				return err
			}
			report(ui.FormatBatch(batch))
		}
		return nil
	}, cancel)
}

func (r *runner) handle(batch models.Batch) error {
	for _, record := range batch.Records {
		if err := r.write(record); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	r.checkpoint.Pages++
	r.checkpoint.Records += len(batch.Records)
	r.checkpoint.CursorURL = batch.NextURL
	if err := r.db.SaveCheckpoint(r.checkpoint); err != nil {
		r.logger.Warn("Failed to save checkpoint", "run", r.checkpoint.RunID, "err", err)
	}

	if !r.interactive {
		r.logger.Debug("Batch written", "page", batch.Page, "records", len(batch.Records))
	}
	return nil
}

func (r *runner) write(record models.Record) error {
	if !r.idsOnly {
		return r.enc.Encode(record)
	}
	id, err := api.ExtractAdArchiveID(record)
	if err != nil {
		r.logger.Warn("Skipping record without archive id", "err", err)
		return nil
	}
	return r.enc.Encode(id)
}

// finish records the outcome of the traversal and reports it
func (r *runner) finish(err error) error {
	if err == nil {
		r.checkpoint.IsComplete = true
		r.checkpoint.CursorURL = ""
	} else {
		if resumeURL, ok := api.ResumeURL(err); ok {
			r.checkpoint.CursorURL = resumeURL
		}
		r.checkpoint.LastError = err.Error()
	}

	if saveErr := r.db.SaveCheckpoint(r.checkpoint); saveErr != nil {
		r.logger.Error("Failed to save checkpoint", "run", r.checkpoint.RunID, "err", saveErr)
	}

	if r.interactive {
		ui.PrintSummary(r.checkpoint.Pages, r.checkpoint.Records, err == nil)
	} else {
		r.logger.Info("Traversal finished", "run", r.checkpoint.RunID,
			"pages", r.checkpoint.Pages, "records", r.checkpoint.Records, "complete", err == nil)
	}

	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		ui.PrintWarning("cancelled")
	}
	resumeURL, _ := api.ResumeURL(err)
	if resumeURL == "" {
		resumeURL = r.checkpoint.CursorURL
	}
	ui.PrintResumeHint(r.checkpoint.RunID, resumeURL)
	return err
}

// openOutput returns stdout, or the named file (appended to when resuming)
func openOutput(path string, appendMode bool) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open output: %w", err)
	}
	return f, func() { f.Close() }, nil
}
