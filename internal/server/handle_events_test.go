package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func (b *Broker) hasSubscribers(gameID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[gameID]) > 0
}

func TestGameEventsUnknownGame(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/games/nope/events", nil, nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestGameEventsStream(t *testing.T) {
	env := newTestEnv(t)
	broker := NewBroker()
	h := handleGameEvents(env.store, broker)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/games/demo-game/events", nil).WithContext(ctx)
	req = withURLParam(req, "gameID", "demo-game")
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h(rec, req)
	}()

	// Give the handler time to subscribe before publishing.
	deadline := time.Now().Add(time.Second)
	for !broker.hasSubscribers("demo-game") {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	broker.Publish("demo-game", GameEvent{Type: "run_started", PlayerID: "p1"})

	// Let the event flush, then close the stream.
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: state") || !strings.Contains(body, `"type":"run_started"`) {
		t.Errorf("stream body = %q", body)
	}
}
