// Package export renders transactions for people: CSV and XLSX downloads
// and a per-currency summary.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
	"github.com/Ravenkao/bank-snapshot/internal/merchant"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet WriteXLSX fills.
const SheetName = "Transactions"

// Columns are the download headers, in order.
var Columns = []string{"Date", "Description", "Money Out", "Money In", "Balance"}

// LogoColumn is the extra XLSX column holding the merchant logo link.
const LogoColumn = "Logo"

type csvRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	MoneyOut    string `csv:"Money Out"`
	MoneyIn     string `csv:"Money In"`
	Balance     string `csv:"Balance"`
}

func toRows(txs []ledger.Transaction) []csvRow {
	rows := make([]csvRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, csvRow{
			Date:        tx.Date,
			Description: tx.Description,
			MoneyOut:    ledger.Value(tx.MoneyOut),
			MoneyIn:     ledger.Value(tx.MoneyIn),
			Balance:     tx.Balance,
		})
	}
	return rows
}

// FileName returns the download name for a statement exported at now,
// e.g. transaction_history_2025-03-04.csv.
func FileName(now time.Time, ext string) string {
	return "transaction_history_" + now.Format("2006-01-02") + "." + strings.TrimPrefix(ext, ".")
}

// WriteCSV writes a header line and one line per transaction. Fields with
// commas, quotes or newlines are quoted. Absent amounts are empty fields.
func WriteCSV(w io.Writer, txs []ledger.Transaction) error {
	rows := toRows(txs)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with one sheet holding the same columns as
// WriteCSV plus a Logo column linking the merchant logo, when one is known.
// Every other cell is a string, exactly as extracted.
func WriteXLSX(w io.Writer, txs []ledger.Transaction) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close xlsx: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, 0, len(Columns)+1)
	for _, c := range Columns {
		header = append(header, c)
	}
	header = append(header, LogoColumn)
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "F1", bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, r := range toRows(txs) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Date, r.Description, r.MoneyOut, r.MoneyIn, r.Balance}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if logo, ok := merchant.Logo(r.Description); ok {
			logoCell, err := excelize.CoordinatesToCellName(len(Columns)+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(SheetName, logoCell, logo); err != nil {
				return fmt.Errorf("write logo %d: %w", i+1, err)
			}
			if err := f.SetCellHyperLink(SheetName, logoCell, logo, "External"); err != nil {
				return fmt.Errorf("link logo %d: %w", i+1, err)
			}
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 48); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "E", 14); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
