// Package dispatch connects inbound transport events to the conversation
// router, serializing events per user and sending replies best-effort.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/chibbonta/Wchat/internal/flow"
	"github.com/chibbonta/Wchat/internal/messaging"
	"github.com/chibbonta/Wchat/internal/models"
)

// Dispatcher is the single entry point for inbound events. Events for
// different users are processed concurrently; events for the same user are
// serialized under a per-user lock so the session read-modify-write is a
// critical section.
type Dispatcher struct {
	router    *flow.Router
	responder messaging.Responder
	locks     sync.Map // userID -> *sync.Mutex
}

// NewDispatcher creates a dispatcher over the given router and responder.
func NewDispatcher(router *flow.Router, responder messaging.Responder) *Dispatcher {
	return &Dispatcher{router: router, responder: responder}
}

// Enqueue hands the event to a goroutine and returns immediately, so the
// caller can acknowledge receipt before the flow transition and outbound
// sends complete. Failures after this point are terminal for the event.
func (d *Dispatcher) Enqueue(ctx context.Context, evt models.Event) {
	go d.Dispatch(ctx, evt)
}

// Dispatch processes one inbound event to completion: normalize, route
// under the user's lock, then send the resulting messages. Malformed
// events are dropped without a reply; send failures are logged and
// swallowed because the state transition has already been committed.
func (d *Dispatcher) Dispatch(ctx context.Context, evt models.Event) {
	userID, sig, err := flow.Normalize(evt)
	if err != nil {
		if errors.Is(err, models.ErrMalformedEvent) {
			slog.Debug("Dispatcher dropping malformed event", "kind", evt.Kind)
			return
		}
		slog.Error("Dispatcher normalize failed", "error", err)
		return
	}

	mu := d.lockFor(userID)
	mu.Lock()
	outs, err := d.router.Route(ctx, userID, sig)
	mu.Unlock()
	if err != nil {
		slog.Error("Dispatcher route failed", "error", err, "userID", userID)
		return
	}

	for _, out := range outs {
		if err := messaging.Send(ctx, d.responder, out); err != nil {
			// Best-effort delivery: state is committed, the send is not retried.
			slog.Warn("Dispatcher outbound send failed", "error", err, "to", out.To, "kind", out.Kind)
		}
	}
	slog.Debug("Dispatcher event handled", "userID", userID, "outbound_count", len(outs))
}

// Run consumes events from a source channel until the context is cancelled
// or the channel closes. Each event is dispatched on its own goroutine.
func (d *Dispatcher) Run(ctx context.Context, events <-chan models.Event) {
	slog.Info("Dispatcher starting event processing")
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				slog.Debug("Dispatcher events channel closed")
				return
			}
			d.Enqueue(ctx, evt)
		case <-ctx.Done():
			slog.Debug("Dispatcher stopping due to context cancellation")
			return
		}
	}
}

// lockFor returns the mutex serializing one user's events.
func (d *Dispatcher) lockFor(userID string) *sync.Mutex {
	mu, _ := d.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
