// Package postgres archives snapshot runs in PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
	"github.com/Ravenkao/bank-snapshot/internal/storage"
)

// maxParams stays under the Postgres limit of 65535 bind parameters.
const maxParams = 60000

// pgxPool is the subset of *pgxpool.Pool the repository uses.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool pgxPool
}

func init() {
	storage.Register("postgres", New)
}

// New opens a pgx pool for cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: missing dsn")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// EnsureSchema creates the archive tables.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL() {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun records run and txs in one transaction.
func (r *Repo) SaveRun(ctx context.Context, run storage.Run, txs []ledger.Transaction) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"INSERT INTO "+storage.SourcesTable+" (label) VALUES ($1) ON CONFLICT (label) DO NOTHING;",
		run.Source,
	); err != nil {
		return 0, fmt.Errorf("postgres: ensure source %q: %w", run.Source, err)
	}

	var sourceID int64
	if err := tx.QueryRow(ctx,
		"SELECT id FROM "+storage.SourcesTable+" WHERE label = $1;",
		run.Source,
	).Scan(&sourceID); err != nil {
		return 0, fmt.Errorf("postgres: lookup source %q: %w", run.Source, err)
	}

	runID := run.ID.String()
	runSQL, runArgs := buildInsertSQL(storage.RunsTable, storage.RunColumns,
		[][]any{{runID, sourceID, run.URL, run.StartedAt.UTC(), len(txs)}}, nil)
	if _, err := tx.Exec(ctx, runSQL, runArgs...); err != nil {
		return 0, fmt.Errorf("postgres: insert run: %w", err)
	}

	rows := storage.Rows(run.Source, txs)
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = row.Values(runID, sourceID, func(t time.Time) any { return t.UTC() })
	}

	var inserted int64
	chunk := maxParams / len(storage.TransactionColumns)
	for start := 0; start < len(values); start += chunk {
		end := min(start+chunk, len(values))
		sql, args := buildInsertSQL(storage.TransactionsTable, storage.TransactionColumns, values[start:end], storage.DedupeColumns)
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, fmt.Errorf("postgres: insert transactions: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func schemaSQL() []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS " + storage.SourcesTable + " (" +
			"id BIGSERIAL PRIMARY KEY, " +
			"label TEXT NOT NULL UNIQUE);",
		"CREATE TABLE IF NOT EXISTS " + storage.RunsTable + " (" +
			"run_id UUID PRIMARY KEY, " +
			"source_id BIGINT NOT NULL REFERENCES " + storage.SourcesTable + " (id), " +
			"url TEXT NOT NULL, " +
			"started_at TIMESTAMPTZ NOT NULL, " +
			"tx_count INTEGER NOT NULL);",
		"CREATE TABLE IF NOT EXISTS " + storage.TransactionsTable + " (" +
			"id BIGSERIAL PRIMARY KEY, " +
			"run_id UUID NOT NULL REFERENCES " + storage.RunsTable + " (run_id), " +
			"source_id BIGINT NOT NULL REFERENCES " + storage.SourcesTable + " (id), " +
			"row_hash CHAR(64) NOT NULL UNIQUE, " +
			"txn_date TEXT NOT NULL, " +
			"description TEXT NOT NULL, " +
			"money_out TEXT NULL, " +
			"money_in TEXT NULL, " +
			"balance TEXT NOT NULL, " +
			"input_source TEXT NOT NULL, " +
			"input_time TIMESTAMPTZ NOT NULL);",
	}
}

// buildInsertSQL builds a multi-row INSERT with $n placeholders. When
// dedupeColumns is non-empty the insert ends in ON CONFLICT (...) DO NOTHING.
func buildInsertSQL(table string, columns []string, rows [][]any, dedupeColumns []string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")

	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	if len(dedupeColumns) > 0 {
		b.WriteString(" ON CONFLICT (")
		for i, c := range dedupeColumns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(pgIdent(c))
		}
		b.WriteString(") DO NOTHING")
	}

	b.WriteString(";")
	return b.String(), args
}

// pgIdent double-quotes a column name.
func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
