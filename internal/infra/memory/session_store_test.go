package memory

import (
	"testing"

	"geoquiz/internal/game"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	created := 0
	factory := func() *game.Session {
		created++
		return game.NewSession("p1", nil, game.Config{}, nil, nil)
	}

	session := store.GetOrCreate("p1", factory)
	if session == nil {
		t.Fatalf("expected session")
	}
	if store.GetOrCreate("p1", factory) != session {
		t.Fatalf("expected same session on second call")
	}
	if created != 1 {
		t.Fatalf("factory should run once, ran %d times", created)
	}
	if _, ok := store.Get("p1"); !ok {
		t.Fatalf("expected session present")
	}

	store.DeleteIfIdle("p1")
	if _, ok := store.Get("p1"); ok {
		t.Fatalf("expected session removed when idle")
	}
}

func TestSessionStoreKeepsSubscribedSessions(t *testing.T) {
	store := NewSessionStore()
	session := store.GetOrCreate("p1", func() *game.Session {
		return game.NewSession("p1", nil, game.Config{}, nil, nil)
	})

	_, cancel := session.Subscribe()
	store.DeleteIfIdle("p1")
	if _, ok := store.Get("p1"); !ok {
		t.Fatalf("subscribed session must survive cleanup")
	}

	cancel()
	store.DeleteIfIdle("p1")
	if _, ok := store.Get("p1"); ok {
		t.Fatalf("idle session should be removed")
	}
}
