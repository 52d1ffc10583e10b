// Package mssql archives snapshot runs in Microsoft SQL Server.
//
// SQL Server has no ON CONFLICT clause, so idempotent inserts are written as
// INSERT ... SELECT FROM (VALUES ...) WHERE NOT EXISTS.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
	"github.com/Ravenkao/bank-snapshot/internal/storage"
)

// maxParams stays under SQL Server's 2100 parameter limit.
const maxParams = 2000

// Repo implements storage.Repository for SQL Server.
type Repo struct {
	db dbConn
}

func init() {
	storage.Register("mssql", New)
}

// New opens cfg.DSN with the "sqlserver" driver and pings it.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mssql: missing dsn")
	}
	raw, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &Repo{db: &sqlDB{db: raw}}, nil
}

// Close releases database resources held by this repository.
func (r *Repo) Close() {
	if r == nil || r.db == nil {
		return
	}
	_ = r.db.Close()
}

// EnsureSchema creates the archive tables when missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mssql: ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun records run and txs in one transaction.
func (r *Repo) SaveRun(ctx context.Context, run storage.Run, txs []ledger.Transaction) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	src := mssqlTableIdent(storage.SourcesTable)
	if _, err := tx.ExecContext(ctx,
		"IF NOT EXISTS (SELECT 1 FROM "+src+" WITH (UPDLOCK, HOLDLOCK) WHERE [label] = @p1) "+
			"INSERT INTO "+src+" ([label]) VALUES (@p1);",
		run.Source,
	); err != nil {
		return 0, fmt.Errorf("mssql: ensure source %q: %w", run.Source, err)
	}

	var sourceID int64
	if err := tx.QueryRowContext(ctx,
		"SELECT [id] FROM "+src+" WHERE [label] = @p1;", run.Source,
	).Scan(&sourceID); err != nil {
		return 0, fmt.Errorf("mssql: lookup source %q: %w", run.Source, err)
	}

	runID := run.ID.String()
	runSQL, runArgs := buildInsertSQL(storage.RunsTable, storage.RunColumns,
		[][]any{{runID, sourceID, run.URL, run.StartedAt.UTC(), len(txs)}})
	if _, err := tx.ExecContext(ctx, runSQL, runArgs...); err != nil {
		return 0, fmt.Errorf("mssql: insert run: %w", err)
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
		q, args := buildInsertNotExistsSQL(storage.TransactionsTable, storage.TransactionColumns, values[start:end], storage.DedupeColumns)
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, fmt.Errorf("mssql: insert transactions: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return inserted, nil
}

func schemaSQL() []string {
	return []string{
		wrapCreateIfMissing(storage.SourcesTable,
			"[id] BIGINT IDENTITY(1,1) PRIMARY KEY, "+
				"[label] NVARCHAR(200) NOT NULL UNIQUE"),
		wrapCreateIfMissing(storage.RunsTable,
			"[run_id] UNIQUEIDENTIFIER PRIMARY KEY, "+
				"[source_id] BIGINT NOT NULL REFERENCES "+mssqlTableIdent(storage.SourcesTable)+" ([id]), "+
				"[url] NVARCHAR(2048) NOT NULL, "+
				"[started_at] DATETIMEOFFSET NOT NULL, "+
				"[tx_count] INT NOT NULL"),
		wrapCreateIfMissing(storage.TransactionsTable,
			"[id] BIGINT IDENTITY(1,1) PRIMARY KEY, "+
				"[run_id] UNIQUEIDENTIFIER NOT NULL REFERENCES "+mssqlTableIdent(storage.RunsTable)+" ([run_id]), "+
				"[source_id] BIGINT NOT NULL REFERENCES "+mssqlTableIdent(storage.SourcesTable)+" ([id]), "+
				"[row_hash] CHAR(64) NOT NULL UNIQUE, "+
				"[txn_date] NVARCHAR(64) NOT NULL, "+
				"[description] NVARCHAR(1024) NOT NULL, "+
				"[money_out] NVARCHAR(64) NULL, "+
				"[money_in] NVARCHAR(64) NULL, "+
				"[balance] NVARCHAR(64) NOT NULL, "+
				"[input_source] NVARCHAR(200) NOT NULL, "+
				"[input_time] DATETIMEOFFSET NOT NULL"),
	}
}

// wrapCreateIfMissing guards CREATE TABLE with an OBJECT_ID check, since SQL
// Server has no CREATE TABLE IF NOT EXISTS.
func wrapCreateIfMissing(tableName string, innerDefs string) string {
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s); END;",
		tableName,
		mssqlTableIdent(tableName),
		innerDefs,
	)
}

// buildInsertSQL builds a plain multi-row INSERT with @pN placeholders.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	writeIdentList(&b, "", columns)
	b.WriteString(") VALUES ")
	args := writeValues(&b, columns, rows)
	b.WriteString(";")
	return b.String(), args
}

// buildInsertNotExistsSQL inserts only the rows whose dedupeColumns are not
// already present in table.
//
// Shape:
//
//	INSERT INTO [t] ([a], [b]) SELECT v.[a], v.[b]
//	FROM (VALUES (@p1, @p2), ...) AS v([a], [b])
//	WHERE NOT EXISTS (SELECT 1 FROM [t] t WHERE t.[a] = v.[a])
func buildInsertNotExistsSQL(table string, columns []string, rows [][]any, dedupeColumns []string) (string, []any) {
	var b strings.Builder

	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	writeIdentList(&b, "", columns)
	b.WriteString(") SELECT ")
	writeIdentList(&b, "v.", columns)
	b.WriteString(" FROM (VALUES ")
	args := writeValues(&b, columns, rows)
	b.WriteString(") AS v(")
	writeIdentList(&b, "", columns)
	b.WriteString(") WHERE NOT EXISTS (SELECT 1 FROM ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" t WHERE ")

	for i, dc := range dedupeColumns {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString("t.")
		b.WriteString(mssqlIdent(dc))
		b.WriteString(" = v.")
		b.WriteString(mssqlIdent(dc))
	}
	b.WriteString(");")

	return b.String(), args
}

func writeIdentList(b *strings.Builder, prefix string, columns []string) {
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(prefix)
		b.WriteString(mssqlIdent(c))
	}
}

func writeValues(b *strings.Builder, columns []string, rows [][]any) []any {
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
			fmt.Fprintf(b, "@p%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	return args
}

// mssqlIdent bracket-quotes a single identifier.
func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent bracket-quotes each part of a possibly schema-qualified
// name: "dbo.imports" -> [dbo].[imports].
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mssqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}

// ---- database/sql seam types ----

// dbConn is the subset of *sql.DB the repository uses.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (txConn, error)
	Close() error
}

// txConn is the subset of *sql.Tx the repository uses.
type txConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) rowScanner
	Commit() error
	Rollback() error
}

type rowScanner interface {
	Scan(dest ...any) error
}

type sqlDB struct {
	db *sql.DB
}

func (s *sqlDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqlDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (txConn, error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (s *sqlDB) Close() error { return s.db.Close() }

type sqlTx struct {
	tx *sql.Tx
}

func (s *sqlTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

func (s *sqlTx) QueryRowContext(ctx context.Context, query string, args ...any) rowScanner {
	return s.tx.QueryRowContext(ctx, query, args...)
}

func (s *sqlTx) Commit() error   { return s.tx.Commit() }
func (s *sqlTx) Rollback() error { return s.tx.Rollback() }
