package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"jamsync/models"
	"jamsync/services"
)

type QueueHandler struct {
	app          *pocketbase.PocketBase
	queueService *services.QueueService
}

func NewQueueHandler(app *pocketbase.PocketBase, queueService *services.QueueService) *QueueHandler {
	return &QueueHandler{
		app:          app,
		queueService: queueService,
	}
}

// GetQueue - the ordered shared queue
func (h *QueueHandler) GetQueue(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")

	items, err := h.queueService.List(e.Request.Context(), sessionID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"queue": items})
}

// AppendTrack - add a track to the tail of the queue
func (h *QueueHandler) AppendTrack(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")

	var req struct {
		ParticipantID string       `json:"participant_id"`
		Track         models.Track `json:"track"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Track.ID == "" {
		return apis.NewBadRequestError("Track is required", nil)
	}

	item, err := h.queueService.Append(e.Request.Context(), sessionID, req.Track, req.ParticipantID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, item)
}

// RemoveTrack - delete an item; later items close the gap atomically
func (h *QueueHandler) RemoveTrack(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")
	itemID := e.Request.PathValue("itemId")

	if err := h.queueService.Remove(e.Request.Context(), sessionID, itemID); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"removed": true})
}

// ReorderQueue - move the item at from to position to
func (h *QueueHandler) ReorderQueue(e *core.RequestEvent) error {
	sessionID := e.Request.PathValue("sessionId")

	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.queueService.Reorder(e.Request.Context(), sessionID, req.From, req.To); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{"reordered": true})
}
