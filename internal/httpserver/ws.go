package httpserver

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/starmatch/internal/game"
)

const (
	watchBuffer  = 16
	writeTimeout = 5 * time.Second
)

// hub fans snapshots out to the watchers of each game.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan game.Snapshot]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan game.Snapshot]struct{})}
}

func (h *hub) subscribe(id string) chan game.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan game.Snapshot, watchBuffer)
	if h.subs[id] == nil {
		h.subs[id] = make(map[chan game.Snapshot]struct{})
	}
	h.subs[id][ch] = struct{}{}
	return ch
}

func (h *hub) unsubscribe(id string, ch chan game.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[id][ch]; !ok {
		return
	}
	delete(h.subs[id], ch)
	close(ch)
	if len(h.subs[id]) == 0 {
		delete(h.subs, id)
	}
}

// publish never blocks; a watcher that falls behind misses snapshots.
func (h *hub) publish(snap game.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[snap.ID] {
		select {
		case ch <- snap:
		default:
		}
	}
}

// closeGame ends every watch on id.
func (h *hub) closeGame(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[id] {
		close(ch)
	}
	delete(h.subs, id)
}

func (h *hub) watchers(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[id])
}

// handleWatch upgrades to a WebSocket and pushes a snapshot on connect and
// after every tick or toggle until the round ends or is superseded.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	g, err := s.store.Get(r.Context(), id)
	var (
		snap game.Snapshot
		ch   chan game.Snapshot
	)
	if err == nil {
		snap = g.Snapshot()
		ch = s.hub.subscribe(id)
	}
	s.mu.Unlock()
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeStoreError(w, err)
		return
	}
	defer s.hub.unsubscribe(id, ch)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.opts.ClientOrigin),
	})
	if err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()
	log.Debug().Str("gameId", id).Msg("watch opened")

	// Client frames are not expected; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		if err := writeSnapshot(ctx, conn, snap); err != nil {
			log.Debug().Err(err).Str("gameId", id).Msg("watch closed")
			return
		}
		if snap.Status.Terminal() {
			_ = conn.Close(websocket.StatusNormalClosure, string(snap.Status))
			return
		}

		var ok bool
		select {
		case snap, ok = <-ch:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "superseded")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, snap game.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, snap)
}

// originPatterns turns the configured client origin into a host pattern.
func originPatterns(origin string) []string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
