package api

import (
	"strconv"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func activeConn(sm *SessionManager, userID, sessionID string) *websocket.Conn {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.active[userID][sessionID]
}

func TestSessionManager_Register(t *testing.T) {
	sm := NewSessionManager()
	conn := &websocket.Conn{}

	sm.Register("user123", "tab-1", conn)

	if active := activeConn(sm, "user123", "tab-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
	if sm.Count() != 1 {
		t.Errorf("Expected count 1, got %d", sm.Count())
	}
}

func TestSessionManager_Unregister(t *testing.T) {
	sm := NewSessionManager()
	conn := &websocket.Conn{}

	sm.Register("user123", "tab-1", conn)
	sm.Unregister("user123", "tab-1", conn)

	if active := activeConn(sm, "user123", "tab-1"); active != nil {
		t.Errorf("Expected nil connection, got %v", active)
	}
	if sm.Count() != 0 {
		t.Errorf("Expected count 0, got %d", sm.Count())
	}
}

func TestSessionManager_UnregisterStale(t *testing.T) {
	sm := NewSessionManager()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	sm.Register("user123", "tab-1", conn1)

	// Another tab should remain active when stale unregister happens.
	sm.Register("user123", "tab-2", conn2)

	sm.Unregister("user123", "tab-1", conn1)

	if active := activeConn(sm, "user123", "tab-2"); active != conn2 {
		t.Errorf("Expected connection %v, got %v", conn2, active)
	}
}

func TestSessionManager_ConcurrentAccess(t *testing.T) {
	sm := NewSessionManager()
	userID := "concurrentUser"
	done := make(chan struct{}, 2)

	go func() {
		for i := 0; i < 1000; i++ {
			sm.Register(userID, "tab-"+strconv.Itoa(i), &websocket.Conn{})
		}
		done <- struct{}{}
	}()

	go func() {
		for i := 0; i < 1000; i++ {
			sm.Count()
		}
		done <- struct{}{}
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for concurrent access")
		}
	}
	if sm.Count() != 1000 {
		t.Errorf("Expected 1000 sockets, got %d", sm.Count())
	}
}
