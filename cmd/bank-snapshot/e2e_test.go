//go:build e2e

package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/extracthtml"
	"github.com/Ravenkao/bank-snapshot/internal/fallback"
	"github.com/Ravenkao/bank-snapshot/internal/site"
)

// TestE2E_SavedStatementsYieldTransactions fetches real statement pages and
// requires every one of them to produce extracted (non-fallback)
// transactions with a date, description and exactly one amount.
//
// Pages are fetched serially. Statement pages sit behind a login, so the
// URLs are usually saved copies served from a local directory.
//
// Run:
//
//	E2E=1 \
//	E2E_TARGET_URLS="http://localhost:8000/chase.html,http://localhost:8000/td.html" \
//	go test -tags=e2e ./cmd/bank-snapshot/
func TestE2E_SavedStatementsYieldTransactions(t *testing.T) {
	if os.Getenv("E2E") != "1" {
		t.Skip("set E2E=1 to enable real network E2E tests")
	}

	urls := splitCSV(os.Getenv("E2E_TARGET_URLS"))
	if len(urls) == 0 {
		t.Skip("set E2E_TARGET_URLS to comma-separated statement page URLs")
	}

	loader := extracthtml.NewLoader(&http.Client{Timeout: 30 * time.Second}, 25*time.Second)
	rules := site.DefaultRules()
	ctx := context.Background()

	var failures []string
	for i, u := range urls {
		html, err := loader.Load(ctx, extracthtml.Input{URL: u})
		if err != nil {
			t.Fatalf("Load(url[%d]=%q): %v", i+1, u, err)
		}

		label := site.Detect(u, rules)
		txs, rep, err := extracthtml.Extract(html, label, fallback.Sample(label))
		if err != nil {
			t.Fatalf("Extract(url[%d]=%q): %v", i+1, u, err)
		}
		if rep.UsedFallback || len(txs) == 0 {
			failures = append(failures, u+": no qualifying table (tables="+strconv.Itoa(rep.Tables)+")")
			continue
		}

		for j, tx := range txs {
			if fallback.IsSample(tx) {
				failures = append(failures, u+": sample row leaked into extracted output")
				break
			}
			if tx.Date == "" || tx.Description == "" || (tx.MoneyOut == nil) == (tx.MoneyIn == nil) {
				failures = append(failures, u+": row "+strconv.Itoa(j)+" is malformed")
			}
		}
	}

	if len(failures) > 0 {
		t.Fatalf("strict E2E failed:\n  - %s", strings.Join(failures, "\n  - "))
	}
}

// splitCSV splits a comma-separated list into trimmed, non-empty entries.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
