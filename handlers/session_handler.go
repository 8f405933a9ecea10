package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"jamsync/models"
	"jamsync/services"
)

type SessionHandler struct {
	app            *pocketbase.PocketBase
	sessionService *services.SessionService
	syncService    *services.SyncService
}

func NewSessionHandler(app *pocketbase.PocketBase, sessionService *services.SessionService, syncService *services.SyncService) *SessionHandler {
	return &SessionHandler{
		app:            app,
		sessionService: sessionService,
		syncService:    syncService,
	}
}

// CreateSession - create a session and register the caller as host
func (h *SessionHandler) CreateSession(e *core.RequestEvent) error {
	var req services.CreateSessionParams
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if strings.TrimSpace(req.HostNickname) == "" {
		return apis.NewBadRequestError("Host nickname is required", nil)
	}

	session, host, err := h.sessionService.Create(e.Request.Context(), req)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"code":    session.Code,
		"session": session,
		"host":    host,
	})
}

// JoinSession - join by shareable code
func (h *SessionHandler) JoinSession(e *core.RequestEvent) error {
	var req struct {
		Code       string `json:"code"`
		Nickname   string `json:"nickname"`
		AccessCode string `json:"access_code"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Nickname) == "" {
		return apis.NewBadRequestError("Code and nickname are required", nil)
	}

	session, participant, err := h.sessionService.Join(e.Request.Context(), req.Code, strings.TrimSpace(req.Nickname), req.AccessCode)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"session":     session,
		"participant": participant,
	})
}

// LeaveSession - mark the participant inactive; ends the session when
// the host leaves
func (h *SessionHandler) LeaveSession(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")

	var req struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.ParticipantID == "" {
		return apis.NewBadRequestError("Participant ID is required", nil)
	}

	if err := h.sessionService.Leave(e.Request.Context(), sessionID, req.ParticipantID); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"left": true})
}

// UpdatePlayback - host-only partial playback update
func (h *SessionHandler) UpdatePlayback(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")

	var req struct {
		ParticipantID string               `json:"participant_id"`
		Delta         models.PlaybackDelta `json:"playback"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	playback, err := h.sessionService.UpdatePlaybackState(e.Request.Context(), sessionID, req.ParticipantID, req.Delta)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"playback": playback})
}

// UpdateTrack - host-only track change; always resets playback position
func (h *SessionHandler) UpdateTrack(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")

	var req struct {
		ParticipantID string        `json:"participant_id"`
		Track         *models.Track `json:"track"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	playback, err := h.sessionService.UpdateCurrentTrack(e.Request.Context(), sessionID, req.ParticipantID, req.Track)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"current_track": req.Track,
		"playback":      playback,
	})
}

// GetSnapshot - reconcile phase of the join protocol: the full current
// session state read directly from the durable store
func (h *SessionHandler) GetSnapshot(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")

	snapshot, err := h.syncService.Snapshot(e.Request.Context(), sessionID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, snapshot)
}
