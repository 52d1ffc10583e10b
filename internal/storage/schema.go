package storage

// Archive tables. Every backend creates the same three tables.
const (
	SourcesTable      = "bank_sources"
	RunsTable         = "snapshot_runs"
	TransactionsTable = "bank_transactions"
)

// RunColumns are the snapshot_runs columns in insert order.
var RunColumns = []string{"run_id", "source_id", "url", "started_at", "tx_count"}

// TransactionColumns are the bank_transactions columns in insert order.
var TransactionColumns = []string{
	"run_id",
	"source_id",
	"row_hash",
	"txn_date",
	"description",
	"money_out",
	"money_in",
	"balance",
	"input_source",
	"input_time",
}

// DedupeColumns make transaction inserts idempotent.
var DedupeColumns = []string{"row_hash"}
