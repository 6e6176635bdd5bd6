package plugin

import (
	"context"
	"log/slog"
	"time"

	"hemtjan.st/openaq/internal/openaq"
)

// Fetcher performs the actual API request.
type Fetcher interface {
	Latest(ctx context.Context, q openaq.Query) (*openaq.Reply, error)
}

// Runtime drives a set of Callbacks: it fires heartbeats on a fixed ticker
// and turns Send calls into asynchronous requests whose result is dispatched
// to OnMessage. Every callback runs on the goroutine that called Run.
type Runtime struct {
	fetcher   Fetcher
	heartbeat time.Duration
	logger    *slog.Logger

	messages chan Message
	busy     bool
}

func NewRuntime(fetcher Fetcher, heartbeat time.Duration, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		fetcher:   fetcher,
		heartbeat: heartbeat,
		logger:    logger,
		messages:  make(chan Message, 1),
	}
}

// Send starts a request in the background. It must only be called from
// within a callback.
func (r *Runtime) Send(ctx context.Context, cycle string, q openaq.Query) bool {
	if r.busy {
		return false
	}
	r.busy = true

	go func() {
		reply, err := r.fetcher.Latest(ctx, q)
		select {
		case r.messages <- Message{Cycle: cycle, Reply: reply, Err: err}:
		case <-ctx.Done():
		}
	}()
	return true
}

// Run starts cb and dispatches callbacks until ctx is cancelled. The first
// heartbeat fires immediately.
func (r *Runtime) Run(ctx context.Context, cb Callbacks) error {
	if err := cb.OnStart(ctx, r); err != nil {
		return err
	}
	defer cb.OnStop()

	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()

	cb.OnHeartbeat(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("runtime stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			cb.OnHeartbeat(ctx)
		case msg := <-r.messages:
			r.busy = false
			cb.OnMessage(ctx, msg)
		}
	}
}
