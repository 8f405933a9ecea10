package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"jamsync/services"
)

type ReactionHandler struct {
	app             *pocketbase.PocketBase
	reactionService *services.ReactionService
}

func NewReactionHandler(app *pocketbase.PocketBase, reactionService *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{
		app:             app,
		reactionService: reactionService,
	}
}

// SendReaction - rate-limited emoji burst. A throttled send is a normal
// 200 with sent=false, not an error: the client treats it as a UI no-op.
func (h *ReactionHandler) SendReaction(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")

	var req struct {
		ParticipantID string `json:"participant_id"`
		Nickname      string `json:"nickname"`
		Emoji         string `json:"emoji"`
		TrackID       string `json:"track_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.ParticipantID == "" || req.Emoji == "" {
		return apis.NewBadRequestError("Participant ID and emoji are required", nil)
	}

	sent, err := h.reactionService.Send(e.Request.Context(), sessionID, req.ParticipantID, req.Nickname, req.Emoji, req.TrackID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"sent": sent})
}
