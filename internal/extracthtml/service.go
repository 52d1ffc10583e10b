package extracthtml

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
	"github.com/Ravenkao/bank-snapshot/internal/messaging"
	"github.com/Ravenkao/bank-snapshot/internal/metrics"
	"github.com/Ravenkao/bank-snapshot/internal/site"
)

// Service is the responder side of the messaging channel: it loads a page,
// labels it, reads its tables and scans them.
type Service struct {
	Loader *Loader
	Rules  []site.Rule

	// Fallback builds the producer for a label. Nil means no fallback.
	Fallback func(label string) ledger.Fallback

	Scanner ledger.Scanner

	// Job labels scan metrics.
	Job string

	// Stdin is read when a request carries no URL.
	Stdin io.Reader

	// OnScan, if set, receives every scan's label and report.
	OnScan func(label string, rep ledger.Report)
}

// Register installs s as the parseTransactions responder on b.
func (s *Service) Register(b *messaging.Bus) {
	b.Register(messaging.ActionParseTransactions, s.Handle)
}

// Handle answers one request. Load and parse failures become unsuccessful
// responses; a page with nothing to extract is a success carrying the
// fallback's transactions.
func (s *Service) Handle(ctx context.Context, req messaging.Request) messaging.Response {
	label := req.Site
	if label == "" {
		label = site.Detect(req.URL, s.Rules)
	}

	loader := s.Loader
	if loader == nil {
		loader = NewLoader(nil, 0)
	}
	html, err := loader.Load(ctx, Input{URL: req.URL, Stdin: s.Stdin})
	if err != nil {
		return messaging.Failure(fmt.Errorf("load page: %w", err))
	}

	tables, err := ReadTables(html)
	if err != nil {
		return messaging.Failure(err)
	}

	var fb ledger.Fallback
	if s.Fallback != nil {
		fb = s.Fallback(label)
	}

	start := time.Now()
	txs, rep := s.Scanner.Scan(tables, label, fb)
	metrics.RecordScan(s.Job, label, rep, time.Since(start))
	if s.OnScan != nil {
		s.OnScan(label, rep)
	}

	if txs == nil {
		txs = []ledger.Transaction{}
	}
	return messaging.Response{Success: true, Transactions: txs}
}
