package extracthtml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"

	"github.com/PuerkitoBio/goquery"
)

// maxColspan bounds colspan expansion on hostile markup.
const maxColspan = 64

// ReadTables parses html and returns every <table> in document order.
//
// Each table contributes only its own rows; a table nested in a cell is
// returned as a separate RawTable and its text also remains part of the
// enclosing cell. Header selection:
//   - the last <thead> row, if the table has a thead
//   - else the first row made only of <th> cells
//   - else the first row
//
// Body rows are the rows after the header, restricted to <tbody> rows when
// there are any. <tfoot> rows are never body rows. A cell with colspan=n
// yields its text followed by n-1 empty cells.
func ReadTables(html string) ([]ledger.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return readTables(doc.Selection), nil
}

func readTables(root *goquery.Selection) []ledger.RawTable {
	var tables []ledger.RawTable
	root.Find("table").Each(func(_ int, t *goquery.Selection) {
		tables = append(tables, readTable(t))
	})
	return tables
}

// Extract reads html and scans it. See ReadTables and ledger.Scan.
func Extract(html, label string, fallback ledger.Fallback) ([]ledger.Transaction, ledger.Report, error) {
	tables, err := ReadTables(html)
	if err != nil {
		return nil, ledger.Report{}, err
	}
	txs, rep := ledger.Scanner{}.Scan(tables, label, fallback)
	return txs, rep, nil
}

type row struct {
	sel     *goquery.Selection
	section string // thead, tbody, tfoot or "" for rows directly under <table>
}

func readTable(t *goquery.Selection) ledger.RawTable {
	var rows []row
	t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !tr.Closest("table").IsSelection(t) {
			return
		}
		rows = append(rows, row{sel: tr, section: goquery.NodeName(tr.Parent())})
	})
	if len(rows) == 0 {
		return ledger.RawTable{}
	}

	header := headerIndex(rows)
	out := ledger.RawTable{Headers: cells(rows[header].sel)}

	hasTbody := false
	for i, r := range rows {
		if i > header && r.section == "tbody" {
			hasTbody = true
			break
		}
	}

	for i, r := range rows {
		switch {
		case i <= header, r.section == "thead", r.section == "tfoot":
			continue
		case hasTbody && r.section != "tbody":
			continue
		}
		out.Rows = append(out.Rows, cells(r.sel))
	}
	return out
}

func headerIndex(rows []row) int {
	last := -1
	for i, r := range rows {
		if r.section == "thead" {
			last = i
		}
	}
	if last >= 0 {
		return last
	}
	for i, r := range rows {
		c := r.sel.Children().Filter("td, th")
		if c.Length() > 0 && c.Length() == c.Filter("th").Length() {
			return i
		}
	}
	return 0
}

func cells(tr *goquery.Selection) []string {
	var out []string
	tr.Children().Filter("td, th").Each(func(_ int, c *goquery.Selection) {
		out = append(out, cellText(c))
		for n := colspan(c); n > 1; n-- {
			out = append(out, "")
		}
	})
	return out
}

func cellText(c *goquery.Selection) string {
	return strings.Join(strings.Fields(c.Text()), " ")
}

func colspan(c *goquery.Selection) int {
	v, ok := c.Attr("colspan")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxColspan {
		return maxColspan
	}
	return n
}
