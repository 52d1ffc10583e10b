package extracthtml

import (
	"fmt"
	"io"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
)

// DebugPrintTables prints every table's headers with their inferred roles
// and whether the table qualifies. This is the command's "-tables" mode.
func DebugPrintTables(w io.Writer, html string) error {
	tables, err := ReadTables(html)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Fprintln(w, "no tables")
		return nil
	}

	for i, t := range tables {
		verdict := "skipped"
		if ledger.Qualifies(t.Headers) {
			verdict = "qualified"
		}
		fmt.Fprintf(w, "table %d: %s (%d rows)\n", i+1, verdict, len(t.Rows))
		for j, h := range t.Headers {
			fmt.Fprintf(w, "  [%d] %q -> %s\n", j, h, ledger.Classify(h))
		}
		fmt.Fprintln(w)
	}
	return nil
}
