package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes builds the HTTP surface: draft lifecycle, picks, trades,
// the live WebSocket feed and a health probe.
func SetupRoutes(s *Server, ws http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/ws", ws.ServeHTTP)

	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", s.createDraft)

		r.Route("/{draftID}", func(r chi.Router) {
			r.Get("/", s.getDraft)
			r.Post("/join", s.joinDraft)
			r.Post("/teams", s.assignTeam)
			r.Post("/start", s.startDraft)
			r.Post("/pause", s.pauseDraft)
			r.Post("/resume", s.resumeDraft)
			r.Post("/picks", s.makePick)
			r.Get("/picks", s.listPicks)
			r.Get("/players", s.availablePlayers)
			r.Get("/trades", s.listTrades)
		})
	})

	r.Route("/trades", func(r chi.Router) {
		r.Post("/", s.proposeTrade)

		r.Route("/{tradeID}", func(r chi.Router) {
			r.Get("/", s.getTrade)
			r.Get("/evaluation", s.evaluateTrade)
			r.Post("/accept", s.acceptTrade)
			r.Post("/reject", s.rejectTrade)
			r.Post("/cancel", s.cancelTrade)
			r.Post("/force", s.forceTrade)
		})
	})

	return r
}
