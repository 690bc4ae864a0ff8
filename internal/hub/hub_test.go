package hub

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type stubConn struct {
	mu     sync.Mutex
	userID string
	got    []any
}

func (c *stubConn) UserID() string { return c.userID }

func (c *stubConn) Enqueue(v any) bool {
	c.mu.Lock()
	c.got = append(c.got, v)
	c.mu.Unlock()
	return true
}

func (c *stubConn) IsViewingChannel(string) bool { return false }
func (c *stubConn) IsViewingDM(string) bool      { return false }

func (c *stubConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func newTestHub() *Hub {
	return New(zap.NewNop().Sugar(), nil)
}

func TestLookupLifecycle(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()

	if _, ok := h.Lookup("alice"); ok {
		t.Fatal("never-connected user must be absent")
	}
	c := &stubConn{userID: "alice"}
	h.Register(ctx, c)
	got, ok := h.Lookup("alice")
	if !ok || got != Conn(c) {
		t.Fatal("expected registered connection back")
	}
	if !h.Unregister(ctx, c) {
		t.Fatal("unregister of current connection must succeed")
	}
	if _, ok := h.Lookup("alice"); ok {
		t.Fatal("user must be absent after unregister")
	}
}

func TestReconnectLastWriterWins(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()
	first := &stubConn{userID: "alice"}
	second := &stubConn{userID: "alice"}

	h.Register(ctx, first)
	h.Register(ctx, second)

	got, _ := h.Lookup("alice")
	if got != Conn(second) {
		t.Fatal("newer connection must own the slot")
	}
	// the stale socket's cleanup must not evict the newer connection
	if h.Unregister(ctx, first) {
		t.Fatal("stale unregister must be a no-op")
	}
	if got, ok := h.Lookup("alice"); !ok || got != Conn(second) {
		t.Fatal("newer connection must survive stale cleanup")
	}
	if !h.Unregister(ctx, second) {
		t.Fatal("current connection unregister must succeed")
	}
}

func TestRoomBroadcastExcludesSenderAndOffline(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()
	alice := &stubConn{userID: "alice"}
	bob := &stubConn{userID: "bob"}
	h.Register(ctx, alice)
	h.Register(ctx, bob)
	h.JoinRoom("C", "alice")
	h.JoinRoom("C", "bob")
	h.JoinRoom("C", "ghost") // joined but never registered

	h.BroadcastRoom("C", "alice", "payload")
	if alice.count() != 0 {
		t.Errorf("excluded sender got %d payloads", alice.count())
	}
	if bob.count() != 1 {
		t.Errorf("expected bob to get 1 payload, got %d", bob.count())
	}
}

func TestUnregisterLeavesRooms(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()
	alice := &stubConn{userID: "alice"}
	bob := &stubConn{userID: "bob"}
	h.Register(ctx, alice)
	h.Register(ctx, bob)
	h.JoinRoom("C", "alice")
	h.JoinRoom("C", "bob")

	h.Unregister(ctx, bob)
	h.BroadcastRoom("C", "", "payload")
	if bob.count() != 0 {
		t.Errorf("unregistered user must leave all rooms, got %d", bob.count())
	}
	if alice.count() != 1 {
		t.Errorf("remaining member still gets payloads, got %d", alice.count())
	}
}

func TestBroadcastAllReachesEveryConnection(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()
	conns := []*stubConn{{userID: "a"}, {userID: "b"}, {userID: "c"}}
	for _, c := range conns {
		h.Register(ctx, c)
	}
	h.BroadcastAll(ctx, "presence")
	for _, c := range conns {
		if c.count() != 1 {
			t.Errorf("conn %s got %d payloads, want 1", c.userID, c.count())
		}
	}
}

func TestPeerPublishFailureDoesNotBlockDelivery(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()
	h.PublishToPeers = func(context.Context, string, []byte) error {
		return errors.New("redis down")
	}
	c := &stubConn{userID: "a"}
	h.Register(ctx, c)
	h.BroadcastAll(ctx, map[string]string{"k": "v"})
	if c.count() != 1 {
		t.Errorf("local delivery must succeed despite peer publish failure, got %d", c.count())
	}
}

type failingMirror struct{}

func (failingMirror) SetOnline(context.Context, string) error  { return errors.New("down") }
func (failingMirror) SetOffline(context.Context, string) error { return errors.New("down") }

func TestMirrorFailureIsBestEffort(t *testing.T) {
	h := New(zap.NewNop().Sugar(), failingMirror{})
	ctx := context.Background()
	c := &stubConn{userID: "alice"}
	h.Register(ctx, c)
	if _, ok := h.Lookup("alice"); !ok {
		t.Fatal("registration must succeed despite mirror failure")
	}
	if !h.Unregister(ctx, c) {
		t.Fatal("unregister must succeed despite mirror failure")
	}
}
