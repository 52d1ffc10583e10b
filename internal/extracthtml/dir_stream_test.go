package extracthtml

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/Ravenkao/bank-snapshot/internal/metrics"
	"github.com/Ravenkao/bank-snapshot/internal/site"
)

const chasePage = `<html><head><link rel="canonical" href="https://secure.chase.com/activity"></head><body>
<table>
  <thead><tr><th>Date</th><th>Description</th><th>Amount</th><th>Balance</th></tr></thead>
  <tbody>
    <tr><td>Jan 2, 2025</td><td>Payroll</td><td>$100.00</td><td>$200.00</td></tr>
    <tr><td>Jan 1, 2025</td><td>Coffee</td><td>-$4.50</td><td>$100.00</td></tr>
  </tbody>
</table></body></html>`

const plainPage = `<table>
  <tr><th>Date</th><th>Details</th><th>Debit</th><th>Credit</th><th>Balance</th></tr>
  <tr><td>Feb 20</td><td>GOODLIFE CLUBS</td><td>$45.19</td><td></td><td>$13,983.03</td></tr>
</table>`

type streamed struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	MoneyOut    *string `json:"moneyOut"`
	MoneyIn     *string `json:"moneyIn"`
	SourceFile  string  `json:"source_file"`
	Metadata    struct {
		InputSource string `json:"inputSource"`
	} `json:"metadata"`
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// TestStreamFromDir verifies:
//   - stable filename ordering, page order within a file
//   - source_file is injected
//   - labels come from the page URL, else from the file name
//   - pages without a qualifying table contribute nothing
func TestStreamFromDir(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"b_wellsfargo.com.html": plainPage,
		"a_statement.html":      chasePage,
		"c_empty.html":          `<p>signed out</p>`,
	})
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o700); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := StreamFromDir(&buf, dir, site.DefaultRules(), "", json.NewEncoder(&buf)); err != nil {
		t.Fatalf("StreamFromDir: %v", err)
	}

	var got []streamed
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d, want 3: %s", len(got), buf.String())
	}

	want := []struct{ desc, file, source string }{
		{"Payroll", "a_statement.html", "Chase"},
		{"Coffee", "a_statement.html", "Chase"},
		{"GOODLIFE CLUBS", "b_wellsfargo.com.html", "Wells Fargo"},
	}
	for i, w := range want {
		if got[i].Description != w.desc || got[i].SourceFile != w.file || got[i].Metadata.InputSource != w.source {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], w)
		}
	}
	if got[1].MoneyOut == nil || *got[1].MoneyOut != "$4.50" || got[1].MoneyIn != nil {
		t.Fatalf("coffee amounts: out=%v in=%v", got[1].MoneyOut, got[1].MoneyIn)
	}
}

func TestStreamFromDir_EmptyDirIsEmptyArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := StreamFromDir(&buf, t.TempDir(), nil, "", json.NewEncoder(&buf)); err != nil {
		t.Fatalf("StreamFromDir: %v", err)
	}
	if buf.String() != "[]" {
		t.Fatalf("got %q, want []", buf.String())
	}
}

func TestStreamFromDir_MissingDir(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := StreamFromDir(&buf, filepath.Join(t.TempDir(), "nope"), nil, "", json.NewEncoder(&buf)); err == nil {
		t.Fatalf("expected error")
	}
}

// TestStreamFromDir_DecodesDeclaredCharset verifies a page saved as
// windows-1252 is decoded before its cells are read.
func TestStreamFromDir_DecodesDeclaredCharset(t *testing.T) {
	t.Parallel()

	page := "<html><head><meta charset=\"windows-1252\"></head><body><table>" +
		"<tr><th>Date</th><th>Description</th><th>Debit</th><th>Credit</th><th>Balance</th></tr>" +
		"<tr><td>Feb 20</td><td>CAF\xc9 ROYAL</td><td>$4.00</td><td></td><td>$10.00</td></tr>" +
		"</table></body></html>"
	dir := writeFiles(t, map[string]string{"latin1.html": page})

	var buf bytes.Buffer
	if err := StreamFromDir(&buf, dir, nil, "", json.NewEncoder(&buf)); err != nil {
		t.Fatalf("StreamFromDir: %v", err)
	}

	var got []streamed
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if len(got) != 1 || got[0].Description != "CAFÉ ROYAL" {
		t.Fatalf("got %+v, want one row described CAFÉ ROYAL", got)
	}
}

type scanRecorder struct {
	mu      sync.Mutex
	sources []string
}

func (r *scanRecorder) IncCounter(string, float64, metrics.Labels) {}

func (r *scanRecorder) ObserveHistogram(name string, _ float64, labels metrics.Labels) {
	if name != metrics.ScanDurationSeconds || labels["job"] != "dir-job" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, labels["source"])
}

// TestStreamFromDir_RecordsScanPerPage swaps the package-level metrics
// backend, so it does not run in parallel.
func TestStreamFromDir_RecordsScanPerPage(t *testing.T) {
	rec := &scanRecorder{}
	metrics.SetBackend(rec)
	t.Cleanup(func() { metrics.SetBackend(nil) })

	dir := writeFiles(t, map[string]string{
		"a_statement.html":      chasePage,
		"b_wellsfargo.com.html": plainPage,
		"c_empty.html":          `<p>signed out</p>`,
	})

	var buf bytes.Buffer
	if err := StreamFromDir(&buf, dir, site.DefaultRules(), "dir-job", json.NewEncoder(&buf)); err != nil {
		t.Fatalf("StreamFromDir: %v", err)
	}

	rec.mu.Lock()
	got := append([]string(nil), rec.sources...)
	rec.mu.Unlock()
	sort.Strings(got)

	want := []string{"Chase", "Generic", "Wells Fargo"}
	if len(got) != len(want) {
		t.Fatalf("scans=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scans=%v, want %v", got, want)
		}
	}
}
