package runtime

import (
	"context"
	"log/slog"
	"sync/atomic"

	"chat-relay/contract"
	"chat-relay/domain/event"
)

// Router fans events out to the currently connected subset of their audience.
//
// It provides best-effort delivery with no guarantees regarding ordering,
// durability, or retries: at most one push per connected target per
// envelope, nothing queued for offline users. Router is not a message broker.
//
// Dispatch only enqueues; the Run loop (supervised like any other worker)
// resolves the audience and pushes frames. Router is safe for concurrent use.
type Router struct {
	log       *slog.Logger
	presence  contract.IPresence
	envelopes chan event.Envelope

	dispatched atomic.Uint64
	delivered  atomic.Uint64
	dropped    atomic.Uint64
}

func NewRouter(log *slog.Logger, presence contract.IPresence, bufferSize int) *Router {
	return &Router{
		log:       log,
		presence:  presence,
		envelopes: make(chan event.Envelope, bufferSize),
	}
}

// Dispatch enqueues one envelope for fan-out. When the channel is full the
// envelope is dropped with a warning rather than blocking the caller:
// realtime pushes are best-effort, persistence is the source of truth.
func (r *Router) Dispatch(env event.Envelope) {
	select {
	case r.envelopes <- env:
		r.dispatched.Add(1)
	default:
		r.dropped.Add(1)
		r.log.Warn("Envelope channel full, dropping event", "event", env.Event.Name())
	}
}

func (r *Router) Run(ctx context.Context) error {
	for {
		select {
		case env := <-r.envelopes:
			r.fanout(env)
		case <-ctx.Done():
			r.log.Debug("Context done, stopping router")
			return nil
		}
	}
}

// fanout encodes the event once and pushes the frame to every resolved
// connection. An empty resolved set is a silent no-op, never an error.
func (r *Router) fanout(env event.Envelope) {
	frame, err := event.Encode(env.Event)
	if err != nil {
		r.log.Error("Refusing to dispatch unencodable event", "event", env.Event.Name(), "error", err)
		return
	}

	conns := r.presence.Lookup(env.Audience)
	for _, conn := range conns {
		if err := conn.Deliver(frame); err != nil {
			// The connection is dying or slow; its own lifecycle handles
			// cleanup. Never escalated to the sender.
			r.log.Warn("Delivery failed", "event", env.Event.Name(), "conn", conn.ID(), "error", err)
			continue
		}
		r.delivered.Add(1)
	}
}

// Stats exposes router counters for the debug server.
func (r *Router) Stats() map[string]any {
	return map[string]any{
		"dispatched": r.dispatched.Load(),
		"delivered":  r.delivered.Load(),
		"dropped":    r.dropped.Load(),
	}
}
