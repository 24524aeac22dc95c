package runtime

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeConn is a minimal contract.Connection recording delivered frames.
type fakeConn struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Deliver(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) delivered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestPresence_Register_Last_Write_Wins(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(slog.Default())
	c1 := &fakeConn{id: "conn-1"}
	c2 := &fakeConn{id: "conn-2"}

	// Given two successive registrations for the same user
	presence.Register("alice", c1)
	presence.Register("alice", c2)

	// Then only the later connection is resolved
	conns := presence.Lookup([]string{"alice"})
	req.Len(conns, 1)
	req.Equal("conn-2", conns[0].ID())
	req.Equal(1, presence.Online())
}

func TestPresence_Lookup_Omits_Offline_Users(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(slog.Default())
	presence.Register("alice", &fakeConn{id: "conn-1"})

	// When looking up a mixed audience
	conns := presence.Lookup([]string{"alice", "bob", "clara"})

	// Then offline users are silently omitted, not an error
	req.Len(conns, 1)
	req.Equal("conn-1", conns[0].ID())

	// And a fully offline audience resolves to nothing
	req.Nil(presence.Lookup([]string{"bob", "clara"}))
}

func TestPresence_Unregister_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(slog.Default())
	presence.Register("alice", &fakeConn{id: "conn-1"})

	presence.Unregister("alice", "conn-1")
	presence.Unregister("alice", "conn-1") // double-disconnect

	req.Zero(presence.Online())
	req.Nil(presence.Lookup([]string{"alice"}))
}

func TestPresence_Stale_Unregister_Keeps_New_Connection(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(slog.Default())

	// Given a reconnect that overwrote the first registration
	presence.Register("alice", &fakeConn{id: "conn-1"})
	presence.Register("alice", &fakeConn{id: "conn-2"})

	// When the first connection's deferred cleanup fires
	presence.Unregister("alice", "conn-1")

	// Then the new connection stays registered
	conns := presence.Lookup([]string{"alice"})
	req.Len(conns, 1)
	req.Equal("conn-2", conns[0].ID())
}

func TestPresence_Concurrent_Lifecycles(t *testing.T) {
	req := require.New(t)
	presence := NewPresence(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%10))
			conn := &fakeConn{id: id}
			presence.Register(id, conn)
			presence.Lookup([]string{id})
			presence.Unregister(id, id)
		}(i)
	}
	wg.Wait()

	req.Zero(presence.Online())
}
