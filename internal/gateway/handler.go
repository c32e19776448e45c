package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handler serves the WebSocket upgrade endpoint.
type Handler struct {
	manager *Manager
}

// NewHandler creates the upgrade handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// ServeHTTP upgrades GET /ws?draft_id=...&user_id=... to a WebSocket
// subscription. user_id is optional; spectators connect without one.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.URL.Query().Get("draft_id"))
	if err != nil {
		http.Error(w, "invalid or missing draft_id", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("user_id")

	if err := h.manager.Upgrade(w, r, userID, draftID); err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("websocket upgrade failed")
	}
}
