// Package notify carries notification requests out of the reconciliation
// engine. Delivery is a collaborator concern: the engine only constructs
// requests and hands them to a Dispatcher after its transaction commits.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Request is one outbound notification. Context holds template values the
// transport renders into the final message; the engine never formats mail
// bodies itself.
type Request struct {
	To      []string
	CC      []string
	Subject string
	Doc     string
	Context map[string]string
}

// Dispatcher delivers notification requests. Implementations must treat
// delivery as best-effort: a dispatch failure is reported to the caller
// but the state transition that produced the request has already
// committed.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) error
}

// LogDispatcher writes each request to a structured logger instead of
// delivering it. Used when no mail transport is configured, and as the
// default for dry runs.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d LogDispatcher) Dispatch(_ context.Context, req Request) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		"to", req.To,
		"cc", req.CC,
		"subject", req.Subject,
		"doc", req.Doc,
	)
	return nil
}

// Recorder accumulates requests in memory. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	reqs []Request
}

func (r *Recorder) Dispatch(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return nil
}

// Requests returns a copy of everything dispatched so far.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.reqs))
	copy(out, r.reqs)
	return out
}
