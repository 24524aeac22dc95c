// Package runtime holds the live-connection plumbing: the presence registry
// and the event router. It orchestrates delivery without containing business
// logic or domain rules.
package runtime

import (
	"log/slog"
	"sync"

	"chat-relay/contract"
)

// Presence is the in-memory table mapping each user to their single live
// connection. It is the only shared mutable resource on the server side:
// the gateway registers and unregisters, the router only reads.
//
// One connection per user: a later registration for the same user overwrites
// the earlier one (last-write-wins on reconnect). Multi-device support would
// generalize the value to a set; that is a known simplification, not a bug.
//
// Presence is safe for concurrent use by multiple goroutines.
type Presence struct {
	mu       sync.RWMutex
	sessions map[string]contract.Connection // userID -> live connection
	log      *slog.Logger
}

func NewPresence(log *slog.Logger) *Presence {
	return &Presence{
		sessions: make(map[string]contract.Connection),
		log:      log,
	}
}

// Register records the connection as the user's live one, unconditionally
// overwriting any existing registration. No error conditions.
func (p *Presence) Register(userID string, conn contract.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.sessions[userID]; ok && old.ID() != conn.ID() {
		p.log.Debug("Replacing live connection", "user_id", userID, "old_conn", old.ID(), "new_conn", conn.ID())
	}
	p.sessions[userID] = conn
}

// Unregister removes the user's registration. It is a no-op when the user is
// absent (double-disconnect) or when connID is stale: a reconnect that
// already overwrote the entry must not be evicted by the old connection's
// deferred cleanup.
func (p *Presence) Unregister(userID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.sessions[userID]
	if !ok || current.ID() != connID {
		return
	}
	delete(p.sessions, userID)
}

// Lookup resolves user IDs to their live connections. Users with no live
// connection are silently omitted: they are offline, and dispatching to them
// is simply a no-op.
func (p *Presence) Lookup(userIDs []string) []contract.Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var conns []contract.Connection
	for _, userID := range userIDs {
		if conn, ok := p.sessions[userID]; ok {
			conns = append(conns, conn)
		}
	}
	return conns
}

// Online returns the number of users with a live connection.
func (p *Presence) Online() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}
