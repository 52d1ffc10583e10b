// Package sqlite archives snapshot runs in a local SQLite file using
// modernc.org/sqlite (no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
	"github.com/Ravenkao/bank-snapshot/internal/storage"
)

// maxParams keeps each statement well under SQLITE_MAX_VARIABLE_NUMBER.
const maxParams = 3000

// Repo implements storage.Repository for SQLite.
//
// SQLite has no timestamp type, so times are stored as RFC3339Nano TEXT.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

// New opens the SQLite database at cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: missing dsn")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// EnsureSchema creates the archive tables.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun records run and txs in one transaction. Transactions whose
// row_hash already exists are ignored.
func (r *Repo) SaveRun(ctx context.Context, run storage.Run, txs []ledger.Transaction) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+storage.SourcesTable+" (label) VALUES (?);", run.Source,
	); err != nil {
		return 0, fmt.Errorf("sqlite: ensure source %q: %w", run.Source, err)
	}

	var sourceID int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM "+storage.SourcesTable+" WHERE label = ?;", run.Source,
	).Scan(&sourceID); err != nil {
		return 0, fmt.Errorf("sqlite: lookup source %q: %w", run.Source, err)
	}

	runID := run.ID.String()
	runSQL := buildInsertSQL(storage.RunsTable, storage.RunColumns, 1, false)
	if _, err := tx.ExecContext(ctx, runSQL,
		runID, sourceID, run.URL, formatSQLiteTime(run.StartedAt), len(txs),
	); err != nil {
		return 0, fmt.Errorf("sqlite: insert run: %w", err)
	}

	rows := storage.Rows(run.Source, txs)
	ncols := len(storage.TransactionColumns)
	chunk := maxParams / ncols

	var inserted int64
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		args := make([]any, 0, (end-start)*ncols)
		for _, row := range rows[start:end] {
			args = append(args, row.Values(runID, sourceID, func(t time.Time) any { return formatSQLiteTime(t) })...)
		}
		res, err := tx.ExecContext(ctx, buildInsertSQL(storage.TransactionsTable, storage.TransactionColumns, end-start, true), args...)
		if err != nil {
			return 0, fmt.Errorf("sqlite: insert transactions: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func schemaSQL() []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS " + storage.SourcesTable + " (" +
			"id INTEGER PRIMARY KEY AUTOINCREMENT, " +
			"label TEXT NOT NULL UNIQUE);",
		"CREATE TABLE IF NOT EXISTS " + storage.RunsTable + " (" +
			"run_id TEXT PRIMARY KEY, " +
			"source_id INTEGER NOT NULL REFERENCES " + storage.SourcesTable + " (id), " +
			"url TEXT NOT NULL, " +
			"started_at TEXT NOT NULL, " +
			"tx_count INTEGER NOT NULL);",
		"CREATE TABLE IF NOT EXISTS " + storage.TransactionsTable + " (" +
			"id INTEGER PRIMARY KEY AUTOINCREMENT, " +
			"run_id TEXT NOT NULL REFERENCES " + storage.RunsTable + " (run_id), " +
			"source_id INTEGER NOT NULL REFERENCES " + storage.SourcesTable + " (id), " +
			"row_hash TEXT NOT NULL UNIQUE, " +
			"txn_date TEXT NOT NULL, " +
			"description TEXT NOT NULL, " +
			"money_out TEXT NULL, " +
			"money_in TEXT NULL, " +
			"balance TEXT NOT NULL, " +
			"input_source TEXT NOT NULL, " +
			"input_time TEXT NOT NULL);",
	}
}

// buildInsertSQL builds a multi-row INSERT with ? placeholders. ignore
// switches to INSERT OR IGNORE, which relies on the table's UNIQUE
// constraints.
func buildInsertSQL(table string, columns []string, nrows int, ignore bool) string {
	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, sqlIdent(c))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	if ignore {
		b.WriteString("INSERT OR IGNORE INTO ")
	} else {
		b.WriteString("INSERT INTO ")
	}
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")
	for i := 0; i < nrows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
	}
	b.WriteString(";")
	return b.String()
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// formatSQLiteTime formats a time as RFC3339Nano in UTC.
func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
