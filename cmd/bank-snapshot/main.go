// Command bank-snapshot reads a bank statement page (from stdin, a URL, or a
// directory of saved pages), finds the transaction tables and prints the
// transactions.
//
// Usage (stdin):
//
//	cat activity.html | bank-snapshot -site Chase
//
// Usage (fetch URL, CSV output):
//
//	bank-snapshot -url "https://secure.chase.com/activity" -format csv -out tx.csv
//
// Usage (directory mode):
//
//	bank-snapshot -dir ./saved-pages
//
// Debug (show how each table's headers were classified):
//
//	cat activity.html | bank-snapshot -tables
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Ravenkao/bank-snapshot/internal/export"
	"github.com/Ravenkao/bank-snapshot/internal/extracthtml"
	"github.com/Ravenkao/bank-snapshot/internal/fallback"
	"github.com/Ravenkao/bank-snapshot/internal/ledger"
	"github.com/Ravenkao/bank-snapshot/internal/logger"
	"github.com/Ravenkao/bank-snapshot/internal/messaging"
	"github.com/Ravenkao/bank-snapshot/internal/site"
	"github.com/Ravenkao/bank-snapshot/internal/storage"

	_ "github.com/Ravenkao/bank-snapshot/internal/storage/all"
)

// demoRows is the size of the synthetic statement returned by -fallback demo.
const demoRows = 20

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
		http.DefaultClient,
	))
}

type options struct {
	url         string
	dir         string
	site        string
	rulesPath   string
	fallback    string
	demoSeed    int64
	format      string
	out         string
	summary     bool
	tables      bool
	timeout     time.Duration
	metrics     string
	pushgateway string
	archive     string
	dsn         string
	verbose     bool
}

// run is split out from main so the command can be tested without spawning
// an OS process.
//
// It returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := flag.NewFlagSet("bank-snapshot", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.url, "url", "", "Fetch the statement page from URL instead of stdin")
	fs.StringVar(&o.dir, "dir", "", "Scan every saved page in a directory (JSON array, one entry per transaction)")
	fs.StringVar(&o.site, "site", "", "Source label; overrides detection from -url (not valid with -dir)")
	fs.StringVar(&o.rulesPath, "rules", "", "YAML file of extra site rules (pattern -> label)")
	fs.StringVar(&o.fallback, "fallback", "sample", "What to return when no table qualifies: sample, demo or none")
	fs.Int64Var(&o.demoSeed, "demo-seed", 0, "Seed for -fallback demo (0 = random)")
	fs.StringVar(&o.format, "format", "json", "Output format: json, csv or xlsx")
	fs.StringVar(&o.out, "out", "", "Write output to this file (default stdout; xlsx defaults to transaction_history_<date>.xlsx)")
	fs.BoolVar(&o.summary, "summary", false, "Print totals per currency to stderr")
	fs.BoolVar(&o.tables, "tables", false, "Debug: print each table's classified headers and exit")
	fs.DurationVar(&o.timeout, "timeout", 20*time.Second, "Timeout for -url fetch")
	fs.StringVar(&o.metrics, "metrics-backend", "", "Metrics backend: none, pushgateway or datadog (overrides env METRICS_BACKEND)")
	fs.StringVar(&o.pushgateway, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	fs.StringVar(&o.archive, "archive", "", "Archive the run to a database: "+strings.Join(storage.Kinds(), ", "))
	fs.StringVar(&o.dsn, "dsn", "", "Archive DSN (overrides env BANK_SNAPSHOT_DSN)")
	fs.BoolVar(&o.verbose, "v", false, "Enable debug logs")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := logger.New(stderr, o.verbose)
	ctx = logger.WithContext(ctx, log)

	if err := validate(&o); err != nil {
		log.Error().Err(err).Msg("invalid flags")
		return 2
	}

	rules := site.DefaultRules()
	if o.rulesPath != "" {
		r, err := site.LoadRules(o.rulesPath)
		if err != nil {
			log.Error().Err(err).Msg("load rules")
			return 2
		}
		rules = r
	}

	flushMetrics, err := setupMetrics(ctx, log, o.metrics, o.pushgateway)
	if err != nil {
		log.Error().Err(err).Msg("metrics")
		return 2
	}
	defer flushMetrics()

	loader := extracthtml.NewLoader(httpClient, o.timeout)
	loader.Job = jobName

	if o.tables {
		html, err := loader.Load(ctx, extracthtml.Input{URL: o.url, Stdin: stdin})
		if err != nil {
			log.Error().Err(err).Msg("load html")
			return 1
		}
		if err := extracthtml.DebugPrintTables(stdout, html); err != nil {
			log.Error().Err(err).Msg("debug tables")
			return 1
		}
		return 0
	}

	if o.dir != "" {
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		if err := extracthtml.StreamFromDir(stdout, o.dir, rules, jobName, enc); err != nil {
			log.Error().Err(err).Msg("dir extract")
			return 1
		}
		return 0
	}

	return runPage(ctx, o, rules, loader, stdin, stdout, stderr)
}

// validate checks flag values and combinations, and resolves the archive
// DSN from the environment.
func validate(o *options) error {
	switch o.format {
	case "json", "csv", "xlsx":
	default:
		return fmt.Errorf("-format must be json, csv or xlsx, got %q", o.format)
	}
	switch o.fallback {
	case "sample", "demo", "none":
	default:
		return fmt.Errorf("-fallback must be sample, demo or none, got %q", o.fallback)
	}
	if o.dir != "" && o.url != "" {
		return errors.New("-dir and -url are mutually exclusive")
	}
	if o.dir != "" && o.site != "" {
		return errors.New("-site does not apply to -dir; each page is labeled from its own URL or file name")
	}
	if o.dir != "" && o.format != "json" {
		return errors.New("-dir only supports -format json")
	}
	if o.archive != "" {
		if o.dsn == "" {
			o.dsn = os.Getenv("BANK_SNAPSHOT_DSN")
		}
		if o.dsn == "" {
			return errors.New("-archive requires -dsn or BANK_SNAPSHOT_DSN")
		}
	}
	return nil
}

func fallbackFor(o options) func(label string) ledger.Fallback {
	switch o.fallback {
	case "demo":
		return func(label string) ledger.Fallback { return fallback.Demo(o.demoSeed, demoRows, label) }
	case "none":
		return nil
	default:
		return fallback.Sample
	}
}

// runPage handles single-page mode. The request goes through the messaging
// client; the responder is registered on first use.
func runPage(
	ctx context.Context,
	o options,
	rules []site.Rule,
	loader *extracthtml.Loader,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) int {
	log := logger.FromContext(ctx)
	started := time.Now()

	var (
		label  string
		report ledger.Report
	)
	svc := &extracthtml.Service{
		Loader:   loader,
		Rules:    rules,
		Fallback: fallbackFor(o),
		Job:      jobName,
		Stdin:    stdin,
		OnScan: func(l string, rep ledger.Report) {
			label, report = l, rep
			log.Debug().
				Str("source", l).
				Int("tables", rep.Tables).
				Int("qualified", rep.Qualified).
				Int("rows", rep.Rows).
				Int("emitted", rep.Emitted).
				Int("rejected", rep.Rejected).
				Bool("fallback", rep.UsedFallback).
				Msg("scan")
		},
	}

	bus := messaging.NewBus()
	client := &messaging.Client{
		Bus:     bus,
		Timeout: o.timeout + 5*time.Second,
		Ensure: func(context.Context) error {
			log.Debug().Msg("registering page responder")
			svc.Register(bus)
			return nil
		},
	}

	resp, err := client.Send(ctx, messaging.Request{
		Action: messaging.ActionParseTransactions,
		URL:    o.url,
		Site:   o.site,
	})
	if err != nil {
		resp = messaging.Failure(err)
	}

	if !resp.Success {
		log.Error().Str("error", resp.Error).Msg("parse transactions")
		if o.format == "json" {
			_ = encodeJSON(stdout, resp)
		}
		return 1
	}

	if err := writeOutput(o, stdout, resp); err != nil {
		log.Error().Err(err).Msg("write output")
		return 1
	}

	if o.summary {
		if err := export.WriteSummary(stderr, export.Summarize(resp.Transactions)); err != nil {
			log.Error().Err(err).Msg("write summary")
			return 1
		}
	}

	if o.archive != "" {
		if report.UsedFallback {
			log.Info().Str("source", label).Msg("archive skipped: no statement table found")
			return 0
		}
		n, err := archive(ctx, o, storage.NewRun(label, o.url, started), resp.Transactions)
		if err != nil {
			log.Error().Err(err).Str("kind", o.archive).Msg("archive")
			return 1
		}
		log.Info().Str("kind", o.archive).Int64("inserted", n).Int("transactions", len(resp.Transactions)).Msg("archived")
	}
	return 0
}

func writeOutput(o options, stdout io.Writer, resp messaging.Response) (err error) {
	path := o.out
	if path == "" && o.format == "xlsx" {
		path = export.FileName(time.Now(), "xlsx")
	}

	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer func() {
			if cerr := f.Close(); err == nil && cerr != nil {
				err = cerr
			}
		}()
		w = f
	}

	switch o.format {
	case "csv":
		return export.WriteCSV(w, resp.Transactions)
	case "xlsx":
		return export.WriteXLSX(w, resp.Transactions)
	default:
		return encodeJSON(w, resp)
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func archive(ctx context.Context, o options, run storage.Run, txs []ledger.Transaction) (int64, error) {
	repo, err := storage.New(ctx, storage.Config{Kind: o.archive, DSN: o.dsn})
	if err != nil {
		return 0, err
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	return repo.SaveRun(ctx, run, txs)
}
