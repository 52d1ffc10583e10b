package ledger

import (
	"strings"
	"time"
)

// minCells is the smallest number of non-empty cells a transaction row can
// have: a date, a description and one monetary field.
const minCells = 3

// ExtractRow converts one row's cell texts into a Transaction using cm.
//
// ok is false when the row is rejected. Malformed individual cells never
// reject a row; they degrade the affected field to absent or empty.
func ExtractRow(cells []string, cm ColumnMap, sourceLabel string, now time.Time) (tx Transaction, ok bool) {
	if countNonEmpty(cells) < minCells {
		return Transaction{}, false
	}

	tx.Date = cellAt(cells, cm, Date, 0)
	tx.Description = cellAt(cells, cm, Description, 1)

	outIdx, hasOut := cm.Index(MoneyOut)
	inIdx, hasIn := cm.Index(MoneyIn)
	amtIdx, hasAmt := cm.Index(SingleAmount)

	switch {
	case hasOut && hasIn:
		// Column identity, not sign, decides direction.
		tx.MoneyOut = optionalCell(cells, outIdx)
		tx.MoneyIn = optionalCell(cells, inIdx)

	case hasAmt:
		a, parsed := Interpret(cell(cells, amtIdx))
		if !parsed {
			// An unreadable amount is tolerated only when the row still
			// identifies itself.
			if tx.Date == "" || tx.Description == "" {
				return Transaction{}, false
			}
			break
		}
		if a.Negative {
			tx.MoneyOut = strPtr(a.Display)
		} else {
			tx.MoneyIn = strPtr(a.Display)
		}

	case hasOut:
		tx.MoneyOut = optionalCell(cells, outIdx)

	case hasIn:
		tx.MoneyIn = optionalCell(cells, inIdx)
	}

	if i, ok := cm.Index(Balance); ok {
		tx.Balance = cell(cells, i)
	} else if len(cells) > 0 {
		tx.Balance = strings.TrimSpace(cells[len(cells)-1])
	}

	tx.Metadata = Metadata{
		InputSource: sourceLabel,
		InputTime:   now,
	}
	return tx, true
}

func countNonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// cellAt reads the column mapped to role, or the positional fallback column
// when the role was not detected.
func cellAt(cells []string, cm ColumnMap, role ColumnRole, fallback int) string {
	if i, ok := cm.Index(role); ok {
		return cell(cells, i)
	}
	return cell(cells, fallback)
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func optionalCell(cells []string, i int) *string {
	v := cell(cells, i)
	if v == "" {
		return nil
	}
	return strPtr(v)
}
