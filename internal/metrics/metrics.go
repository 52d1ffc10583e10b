// Package metrics is the backend-agnostic metrics facade.
//
// Code records through the package-level helpers; cmd/ wires a concrete
// Backend (Datadog, Pushgateway) with SetBackend. Until then a no-op backend
// swallows everything, so libraries and tests never need to care.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric events.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Flusher is implemented by backends that buffer.
type Flusher interface {
	Flush() error
}

// Metric names. Backends ignore names they do not know.
const (
	TablesTotal         = "ledger_tables_total"
	RowsTotal           = "ledger_rows_total"
	FallbackTotal       = "ledger_fallback_total"
	ScanDurationSeconds = "ledger_scan_duration_seconds"

	HTTPRequestsTotal           = "ledger_http_requests_total"
	HTTPErrorsTotal             = "ledger_http_errors_total"
	HTTPRequestDurationSeconds  = "ledger_http_request_duration_seconds"
	HTTPResponseDurationSeconds = "ledger_http_response_duration_seconds"
	HTTPDownloadBytes           = "ledger_http_download_bytes"
)

type nop struct{}

func (nop) IncCounter(string, float64, Labels)       {}
func (nop) ObserveHistogram(string, float64, Labels) {}

var (
	mu      sync.RWMutex
	backend Backend = nop{}
)

// SetBackend installs b. A nil b restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nop{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter forwards to the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram forwards to the installed backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush flushes the installed backend if it buffers.
func Flush() error {
	if f, ok := current().(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// RecordHTTP records one HTTP fetch attempt. status 0 means no response.
func RecordHTTP(job string, status int, err error, reqDur, respDur time.Duration, downloadBytes int64) {
	st := "error"
	if status > 0 {
		st = strconv.Itoa(status)
	}
	l := Labels{"job": job, "status": st}

	b := current()
	b.IncCounter(HTTPRequestsTotal, 1, l)
	if err != nil || status < 200 || status >= 300 {
		b.IncCounter(HTTPErrorsTotal, 1, l)
	}
	b.ObserveHistogram(HTTPRequestDurationSeconds, reqDur.Seconds(), l)
	b.ObserveHistogram(HTTPResponseDurationSeconds, respDur.Seconds(), l)
	if downloadBytes > 0 {
		b.ObserveHistogram(HTTPDownloadBytes, float64(downloadBytes), l)
	}
}

// RecordScan records the outcome of one page scan.
func RecordScan(job, source string, rep ledger.Report, d time.Duration) {
	b := current()
	base := func(kv ...string) Labels {
		l := Labels{"job": job, "source": source}
		for i := 0; i+1 < len(kv); i += 2 {
			l[kv[i]] = kv[i+1]
		}
		return l
	}

	b.IncCounter(TablesTotal, float64(rep.Qualified), base("status", "qualified"))
	b.IncCounter(TablesTotal, float64(rep.Tables-rep.Qualified), base("status", "rejected"))
	b.IncCounter(RowsTotal, float64(rep.Emitted), base("status", "emitted"))
	b.IncCounter(RowsTotal, float64(rep.Rejected), base("status", "rejected"))
	if rep.UsedFallback {
		b.IncCounter(FallbackTotal, 1, base())
	}

	status := "ok"
	if rep.UsedFallback {
		status = "fallback"
	}
	b.ObserveHistogram(ScanDurationSeconds, d.Seconds(), base("status", status))
}
