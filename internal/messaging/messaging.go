// Package messaging is the request/response channel between a caller that
// wants a page's transactions and the responder that scans it.
//
// A Bus routes a Request to the Handler registered for its Action. The
// Client adds the caller-side policy: when nobody is listening it runs an
// Ensure hook (which registers the responder) and retries exactly once.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
)

// ActionParseTransactions asks the responder for the page's transactions.
const ActionParseTransactions = "parseTransactions"

var (
	// ErrNoResponder means no handler is registered for the action.
	ErrNoResponder = errors.New("messaging: no responder for action")
	// ErrTimeout means the handler did not answer before the deadline.
	ErrTimeout = errors.New("messaging: responder timed out")
)

// Request is what the caller sends.
type Request struct {
	Action string `json:"action"`
	URL    string `json:"url,omitempty"`
	Site   string `json:"site,omitempty"`
}

// Response is the envelope a responder answers with.
type Response struct {
	Success      bool                 `json:"success"`
	Transactions []ledger.Transaction `json:"transactions"`
	Error        string               `json:"error,omitempty"`
}

// Failure wraps err as an unsuccessful Response.
func Failure(err error) Response {
	return Response{Success: false, Transactions: []ledger.Transaction{}, Error: err.Error()}
}

// Handler answers one request.
type Handler func(ctx context.Context, req Request) Response

// Bus routes requests by action. The zero value is not usable; use NewBus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewBus returns a Bus with no handlers registered.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string]Handler)}
}

// Register installs h for action, replacing any previous handler.
func (b *Bus) Register(action string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[action] = h
}

// Unregister removes the handler for action.
func (b *Bus) Unregister(action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, action)
}

func (b *Bus) handler(action string) (Handler, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.handlers[action]
	return h, ok
}

// Send delivers req and waits for the answer. A timeout <= 0 waits as long
// as ctx allows. The handler sees a context cancelled at the deadline; a
// handler that ignores it keeps running but its answer is dropped.
func (b *Bus) Send(ctx context.Context, req Request, timeout time.Duration) (Response, error) {
	h, ok := b.handler(req.Action)
	if !ok {
		return Response{}, fmt.Errorf("%w %q", ErrNoResponder, req.Action)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan Response, 1)
	go func() { done <- h(ctx, req) }()

	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return Response{}, ctx.Err()
	}
}

// Client sends requests over a Bus.
type Client struct {
	Bus     *Bus
	Timeout time.Duration
	// Ensure makes a responder available. It is called at most once per
	// Send, only after ErrNoResponder.
	Ensure func(ctx context.Context) error
}

// Send delivers req, retrying once after Ensure when no responder is
// registered.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	resp, err := c.Bus.Send(ctx, req, c.Timeout)
	if !errors.Is(err, ErrNoResponder) || c.Ensure == nil {
		return resp, err
	}

	if err := c.Ensure(ctx); err != nil {
		return Response{}, fmt.Errorf("messaging: ensure responder: %w", err)
	}
	return c.Bus.Send(ctx, req, c.Timeout)
}
