package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// positionUpdate is one player's live position, fanned out to teammates
// so everyone's map shows the whole team.
type positionUpdate struct {
	PlayerID string  `json:"playerId"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// positionHub fans position messages out to every connection in the same
// game. Connections are registered per game ID.
type positionHub struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]struct{}
}

func newPositionHub() *positionHub {
	return &positionHub{conns: make(map[string]map[*websocket.Conn]struct{})}
}

func (h *positionHub) add(gameID string, c *websocket.Conn) {
	h.mu.Lock()
	if h.conns[gameID] == nil {
		h.conns[gameID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[gameID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *positionHub) remove(gameID string, c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns[gameID], c)
	if len(h.conns[gameID]) == 0 {
		delete(h.conns, gameID)
	}
	h.mu.Unlock()
}

// broadcast writes msg to every connection in the game except the sender.
func (h *positionHub) broadcast(ctx context.Context, gameID string, sender *websocket.Conn, msg []byte) {
	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.conns[gameID]))
	for c := range h.conns[gameID] {
		if c != sender {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		c.Write(wctx, websocket.MessageText, msg)
		cancel()
	}
}

// handleWSPositions upgrades to a websocket and relays each player's
// position updates to the rest of their game's connections.
func handleWSPositions(logger *slog.Logger, hub *positionHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := r.URL.Query().Get("gameId")
		if gameID == "" {
			writeError(w, http.StatusBadRequest, "gameId parameter required")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		hub.add(gameID, conn)
		defer hub.remove(gameID, conn)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
		defer cancel()

		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}

			var update positionUpdate
			if err := json.Unmarshal(msg, &update); err != nil {
				logger.Debug("dropping malformed position update", "error", err)
				continue
			}

			hub.broadcast(ctx, gameID, conn, msg)
		}
	}
}
