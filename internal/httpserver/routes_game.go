package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/starmatch/internal/game"
	"github.com/robalobadob/starmatch/internal/puzzle"
	"github.com/robalobadob/starmatch/internal/store"
)

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Seed *uint64 `json:"seed,omitempty"` // optional fixed seed (testing)
}
type newGameRes struct {
	GameID string        `json:"gameId"`
	Token  string        `json:"token"`
	Date   string        `json:"date,omitempty"` // daily rounds only
	Game   game.Snapshot `json:"game"`
}

// toggleReq is the payload for POST /game/{id}/toggle.
type toggleReq struct {
	Digit int `json:"digit"`
}

// handleNewGame starts a round with a random (or requested) seed.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	// An empty body means "random seed".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	res, err := s.startGame(w, r, seed)
	if err != nil {
		log.Error().Err(err).Msg("start game")
		writeError(w, http.StatusInternalServerError, "start_failed")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// startGame supersedes the caller's previous round (if its token is on the
// request), creates and stores a new round, arms its countdown and issues a
// player token.
func (s *Server) startGame(w http.ResponseWriter, r *http.Request, seed uint64) (*newGameRes, error) {
	ctx := r.Context()

	s.mu.Lock()
	if old, err := s.tokens.fromRequest(r); err == nil {
		s.retire(ctx, old)
	}
	g, err := game.New(puzzle.NewSource(seed))
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.store.Save(ctx, g); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.clock.Arm(g.ID, s.tickFunc(g.ID))
	snap := g.Snapshot()
	s.mu.Unlock()

	tok, exp, err := s.tokens.sign(g.ID)
	if err != nil {
		return nil, err
	}
	s.tokens.setCookie(w, tok, exp)

	log.Info().Str("gameId", g.ID).Int("stars", snap.Stars).Msg("game started")
	return &newGameRes{GameID: g.ID, Token: tok, Game: snap}, nil
}

// retire cancels the countdown of a superseded round, drops it from the store
// and closes its watchers. Callers hold s.mu.
func (s *Server) retire(ctx context.Context, id string) {
	s.clock.Disarm(id)
	if err := s.store.Delete(ctx, id); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("delete superseded game")
	}
	s.hub.closeGame(id)
	log.Info().Str("gameId", id).Msg("game superseded")
}

// handleGetGame returns the current snapshot.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	var snap game.Snapshot
	if err == nil {
		snap = g.Snapshot()
	}
	s.mu.Unlock()

	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleToggle applies one digit toggle and returns the new snapshot.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, _ := r.Context().Value(ctxGameKey{}).(string)

	var req toggleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	s.mu.Lock()
	snap, err := s.toggle(r.Context(), id, req.Digit)
	s.mu.Unlock()

	switch {
	case errors.Is(err, game.ErrInvalidDigit):
		writeError(w, http.StatusBadRequest, "invalid_digit")
	case err != nil:
		writeStoreError(w, err)
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

// toggle loads, mutates and saves one round. Callers hold s.mu.
func (s *Server) toggle(ctx context.Context, id string, digit int) (game.Snapshot, error) {
	g, err := s.store.Get(ctx, id)
	if err != nil {
		return game.Snapshot{}, err
	}
	if err := g.Toggle(digit); err != nil {
		return game.Snapshot{}, err
	}
	if err := s.store.Save(ctx, g); err != nil {
		return game.Snapshot{}, err
	}
	snap := g.Snapshot()
	s.hub.publish(snap)
	if snap.Status.Terminal() {
		s.clock.Disarm(id)
		log.Info().Str("gameId", id).Str("status", string(snap.Status)).Int("secondsLeft", snap.SecondsLeft).Msg("game finished")
	}
	return snap, nil
}

// tickFunc returns the countdown callback for one round. A tick for a round
// that is gone (superseded) or already over stops the timer and changes
// nothing.
func (s *Server) tickFunc(id string) func() bool {
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		ctx := context.Background()
		g, err := s.store.Get(ctx, id)
		if err != nil || g.Status().Terminal() {
			return false
		}
		if err := g.Tick(); err != nil {
			return false
		}
		if err := s.store.Save(ctx, g); err != nil {
			log.Error().Err(err).Str("gameId", id).Msg("save after tick")
			return false
		}
		snap := g.Snapshot()
		s.hub.publish(snap)
		if snap.Status.Terminal() {
			log.Info().Str("gameId", id).Str("status", string(snap.Status)).Msg("game finished")
			return false
		}
		return true
	}
}

// writeStoreError maps store errors to responses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	log.Error().Err(err).Msg("game store")
	writeError(w, http.StatusInternalServerError, "server_error")
}
