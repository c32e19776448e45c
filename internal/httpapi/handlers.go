package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftday/mockdraft/internal/draft"
	"github.com/draftday/mockdraft/internal/models"
	"github.com/draftday/mockdraft/internal/seeds"
	"github.com/draftday/mockdraft/internal/store"
	"github.com/draftday/mockdraft/internal/trade"
)

// Server exposes the draft and trade apps over plain JSON HTTP.
type Server struct {
	drafts *draft.App
	trades *trade.App
}

// NewServer creates the HTTP server handlers.
func NewServer(drafts *draft.App, trades *trade.App) *Server {
	return &Server{drafts: drafts, trades: trades}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) createDraft(w http.ResponseWriter, r *http.Request) {
	var req draft.CreateDraftRequest
	if !decode(w, r, &req) {
		return
	}

	d, err := s.drafts.CreateDraft(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}

	d, err := s.drafts.Get(r.Context(), draftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) joinDraft(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}
	var p models.Participant
	if !decode(w, r, &p) {
		return
	}

	d, err := s.drafts.Join(r.Context(), draftID, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) assignTeam(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id"`
		Team   string    `json:"team"`
	}
	if !decode(w, r, &req) {
		return
	}

	d, err := s.drafts.AssignTeam(r.Context(), draftID, req.UserID, req.Team)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) startDraft(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	d, err := s.drafts.Start(r.Context(), draftID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	s.kickCascade(draftID)
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) pauseDraft(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	d, err := s.drafts.Pause(r.Context(), draftID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) resumeDraft(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	d, err := s.drafts.Resume(r.Context(), draftID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	s.kickCascade(draftID)
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) makePick(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}
	var req struct {
		UserID   uuid.UUID `json:"user_id"`
		PlayerID string    `json:"player_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	pick, d, err := s.drafts.MakePick(r.Context(), draftID, req.UserID, req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	if d.Status == models.DraftStatusActive {
		s.kickCascade(draftID)
	}
	writeJSON(w, http.StatusCreated, pick)
}

func (s *Server) listPicks(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}

	picks, err := s.drafts.ListPicks(r.Context(), draftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, picks)
}

func (s *Server) availablePlayers(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}

	d, err := s.drafts.Get(r.Context(), draftID)
	if err != nil {
		writeError(w, err)
		return
	}
	players, err := s.drafts.AvailablePlayers(r.Context(), d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (s *Server) proposeTrade(w http.ResponseWriter, r *http.Request) {
	var req trade.ProposeRequest
	if !decode(w, r, &req) {
		return
	}

	t, err := s.trades.Propose(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) getTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, ok := pathUUID(w, r, "tradeID")
	if !ok {
		return
	}

	t, err := s.trades.Get(r.Context(), tradeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) evaluateTrade(w http.ResponseWriter, r *http.Request) {
	tradeID, ok := pathUUID(w, r, "tradeID")
	if !ok {
		return
	}

	eval, err := s.trades.EvaluateCpu(r.Context(), tradeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) acceptTrade(w http.ResponseWriter, r *http.Request) {
	s.resolveTrade(w, r, s.trades.Accept)
}

func (s *Server) rejectTrade(w http.ResponseWriter, r *http.Request) {
	s.resolveTrade(w, r, s.trades.Reject)
}

func (s *Server) cancelTrade(w http.ResponseWriter, r *http.Request) {
	s.resolveTrade(w, r, s.trades.Cancel)
}

func (s *Server) forceTrade(w http.ResponseWriter, r *http.Request) {
	s.resolveTrade(w, r, s.trades.Force)
}

func (s *Server) resolveTrade(w http.ResponseWriter, r *http.Request, resolve func(context.Context, uuid.UUID, uuid.UUID) (*models.Trade, error)) {
	tradeID, ok := pathUUID(w, r, "tradeID")
	if !ok {
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	t, err := resolve(r.Context(), tradeID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathUUID(w, r, "draftID")
	if !ok {
		return
	}

	trades, err := s.trades.ListByDraft(r.Context(), draftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// kickCascade drains consecutive CPU slots in the background so HTTP
// responses return as soon as the caller's own action commits.
func (s *Server) kickCascade(draftID uuid.UUID) {
	go func() {
		if _, _, err := s.drafts.RunCpuCascade(context.Background(), draftID); err != nil {
			log.Error().Err(err).Str("draft_id", draftID.String()).Msg("cpu cascade failed")
		}
	}()
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		http.Error(w, "invalid "+param, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrDraftNotFound),
		errors.Is(err, store.ErrTradeNotFound),
		errors.Is(err, seeds.ErrNotFound),
		errors.Is(err, draft.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, draft.ErrUnauthorized),
		errors.Is(err, trade.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, draft.ErrAlreadyPicked),
		errors.Is(err, draft.ErrInvalidState),
		errors.Is(err, draft.ErrOutOfPicks),
		errors.Is(err, trade.ErrInvalidState),
		errors.Is(err, trade.ErrStalePieces),
		errors.Is(err, trade.ErrExpired):
		status = http.StatusConflict
	case errors.Is(err, draft.ErrNoAvailablePlayers):
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
