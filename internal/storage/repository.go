// Package storage archives finished snapshot runs.
//
// Extraction never touches storage; the command calls SaveRun after a scan
// when archiving is enabled. Backends register themselves by kind from an
// init function (see storage/all).
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"

	"github.com/google/uuid"
)

// Config selects and configures a backend.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend; validation is backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Run identifies one scan of one page.
type Run struct {
	ID        uuid.UUID
	Source    string
	URL       string
	StartedAt time.Time
}

// NewRun returns a Run with a fresh random ID.
func NewRun(source, url string, startedAt time.Time) Run {
	return Run{ID: uuid.New(), Source: source, URL: url, StartedAt: startedAt}
}

// Repository is the backend-agnostic archive interface.
//
// Each backend implements the same semantics in its own idiom (Postgres
// ON CONFLICT, SQLite OR IGNORE, SQL Server NOT EXISTS).
type Repository interface {
	// Close releases backend resources. Call once.
	Close()

	// EnsureSchema creates the archive tables if they do not exist.
	EnsureSchema(ctx context.Context) error

	// SaveRun records run and its transactions in one database
	// transaction and returns how many transaction rows were new. Rows whose
	// row_hash is already stored are skipped, so re-archiving the same page
	// is a no-op apart from the run record.
	SaveRun(ctx context.Context, run Run, txs []ledger.Transaction) (int64, error)
}

// Factory opens a backend.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind.
//
// Panics:
//   - If kind is empty or f is nil.
//   - If kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New opens the backend registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
