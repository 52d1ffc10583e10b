package extracthtml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
	"github.com/Ravenkao/bank-snapshot/internal/metrics"
	"github.com/Ravenkao/bank-snapshot/internal/site"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// fileTransaction is one streamed record: the transaction plus the file it
// came from.
type fileTransaction struct {
	ledger.Transaction
	SourceFile string `json:"source_file"`
}

// StreamFromDir scans every saved statement page in dir and streams a single
// JSON array of transactions to w, adding "source_file" to each.
//
// Behavior:
//   - stable ordering by filename, rows in page order within a file
//   - unreadable/unparseable files are skipped
//   - no fallback: a page without a qualifying table contributes nothing
//   - the label comes from the page's own URL (canonical link, og:url or
//     <base href>) matched against rules, else from the file name
//   - every parsed page is recorded as a scan under job
func StreamFromDir(w io.Writer, dir string, rules []site.Rule, job string, enc *json.Encoder) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	if _, err := io.WriteString(w, "["); err != nil {
		return fmt.Errorf("write [: %w", err)
	}

	first := true
	emit := func(rec fileTransaction) error {
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return fmt.Errorf("write comma: %w", err)
			}
		}
		first = false
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		return nil
	}

	scanner := ledger.Scanner{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		full := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(full)
		if err != nil {
			continue
		}

		// Saved pages keep the bank's encoding; decode from the meta
		// charset or a BOM, else sniff.
		r, err := charset.NewReader(bytes.NewReader(b), "")
		if err != nil {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(r)
		if err != nil {
			continue
		}

		hint := pageURL(doc)
		if hint == "" {
			hint = e.Name()
		}
		label := site.Detect(hint, rules)

		start := time.Now()
		txs, rep := scanner.Scan(readTables(doc.Selection), label, nil)
		metrics.RecordScan(job, label, rep, time.Since(start))
		for _, tx := range txs {
			if err := emit(fileTransaction{Transaction: tx, SourceFile: e.Name()}); err != nil {
				return err
			}
		}
	}

	if _, err := io.WriteString(w, "]"); err != nil {
		return fmt.Errorf("write ]: %w", err)
	}
	return nil
}

// pageURL returns the address a saved page declares for itself, if any.
func pageURL(doc *goquery.Document) string {
	for _, q := range []struct{ sel, attr string }{
		{`link[rel="canonical"]`, "href"},
		{`meta[property="og:url"]`, "content"},
		{"base[href]", "href"},
	} {
		if v, ok := doc.Find(q.sel).First().Attr(q.attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
