package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
)

func str(s string) *string { return &s }

type nopRepo struct{}

func (nopRepo) Close()                           {}
func (nopRepo) EnsureSchema(context.Context) error { return nil }
func (nopRepo) SaveRun(context.Context, Run, []ledger.Transaction) (int64, error) {
	return 0, nil
}

// TestRegisterAndNew verifies lookup by kind and the error paths.
func TestRegisterAndNew(t *testing.T) {
	Register("test-nop", func(ctx context.Context, cfg Config) (Repository, error) {
		return nopRepo{}, nil
	})

	if _, err := New(context.Background(), Config{Kind: "test-nop"}); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("New with empty kind: want error")
	}
	_, err := New(context.Background(), Config{Kind: "nope"})
	if err == nil || !strings.Contains(err.Error(), "test-nop") {
		t.Fatalf("unsupported kind error should list registered kinds, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("duplicate Register did not panic")
		}
	}()
	Register("test-nop", func(ctx context.Context, cfg Config) (Repository, error) { return nil, nil })
}

func TestNewRun(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	a := NewRun("Chase", "https://secure.chase.com", now)
	b := NewRun("Chase", "https://secure.chase.com", now)
	if a.ID == b.ID {
		t.Fatalf("run IDs must differ")
	}
	if a.Source != "Chase" || !a.StartedAt.Equal(now) {
		t.Fatalf("run=%+v", a)
	}
}

// TestRows_Hash verifies hashes ignore input time, separate absent from
// empty, and distinguish identical rows by occurrence.
func TestRows_Hash(t *testing.T) {
	t.Parallel()

	tx := ledger.Transaction{
		Date: "Feb 18, 2025", Description: "TF 3933#3607-829", MoneyOut: str("$160.00"), Balance: "$14,836.22",
		Metadata: ledger.Metadata{InputSource: "Chase", InputTime: time.Unix(1, 0)},
	}
	later := tx
	later.Metadata.InputTime = time.Unix(2, 0)

	a := Rows("Chase", []ledger.Transaction{tx})
	b := Rows("Chase", []ledger.Transaction{later})
	if a[0].RowHash != b[0].RowHash {
		t.Fatalf("hash depends on input time")
	}
	if len(a[0].RowHash) != 64 {
		t.Fatalf("hash len=%d, want 64", len(a[0].RowHash))
	}

	if Rows("Citibank", []ledger.Transaction{tx})[0].RowHash == a[0].RowHash {
		t.Fatalf("hash ignores source")
	}

	empty := tx
	empty.MoneyIn = str("")
	if Rows("Chase", []ledger.Transaction{empty})[0].RowHash == a[0].RowHash {
		t.Fatalf("absent and empty money_in hash the same")
	}

	dup := Rows("Chase", []ledger.Transaction{tx, tx})
	if dup[0].RowHash == dup[1].RowHash {
		t.Fatalf("identical rows in one list must hash differently")
	}
	if dup[0].RowHash != a[0].RowHash {
		t.Fatalf("first occurrence hash must match a single-row list")
	}
}

func TestRow_Values(t *testing.T) {
	t.Parallel()

	r := Rows("Chase", []ledger.Transaction{{Date: "d", Description: "x", MoneyIn: str("$1.00"), Balance: "b"}})[0]
	v := r.Values("run-1", 7, func(t time.Time) any { return "T" })
	if len(v) != len(TransactionColumns) {
		t.Fatalf("values=%d, columns=%d", len(v), len(TransactionColumns))
	}
	if v[0] != "run-1" || v[1] != int64(7) || v[5] != nil || v[6] != "$1.00" || v[9] != "T" {
		t.Fatalf("values=%v", v)
	}
}
