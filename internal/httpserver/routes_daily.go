// internal/httpserver/routes_daily.go
//
// HTTP route for the "Daily" round:
//   - POST /daily/new → start a round whose generator is seeded from today's
//     UTC date key and DAILY_SALT.
//
// Everyone playing the daily round on the same date sees the same first
// target, and the same follow-up targets for the same matches.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/starmatch/internal/daily"
)

// mountDaily registers the /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	salt := s.opts.DailySalt
	if salt == "" {
		salt = "local_dev_salt"
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", func(w http.ResponseWriter, r *http.Request) {
			now := s.opts.Now()
			res, err := s.startGame(w, r, daily.Seed(now, salt))
			if err != nil {
				log.Error().Err(err).Msg("start daily game")
				writeError(w, http.StatusInternalServerError, "start_failed")
				return
			}
			res.Date = daily.DateKey(now)
			writeJSON(w, http.StatusCreated, res)
		})
	})
}
