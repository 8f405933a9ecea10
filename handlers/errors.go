package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"

	"jamsync/internal/status"
)

// apiError maps domain outcomes onto HTTP errors. Validation and
// authorization failures surface directly; anything unrecognized is a
// store-level failure.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Session, participant or item not found", err)
	case errors.Is(err, status.ErrNotAuthorized):
		return apis.NewForbiddenError("Only the session host may do that", err)
	case errors.Is(err, status.ErrNicknameTaken):
		return apis.NewApiError(http.StatusConflict, "Nickname already taken in this session", err)
	case errors.Is(err, status.ErrSessionFull):
		return apis.NewApiError(http.StatusConflict, "Session is full", err)
	case errors.Is(err, status.ErrSessionEnded):
		return apis.NewApiError(http.StatusGone, "Session has ended", err)
	case errors.Is(err, status.ErrInvalidPosition):
		return apis.NewBadRequestError("Queue position out of range", err)
	case errors.Is(err, status.ErrInvalidEmoji):
		return apis.NewBadRequestError("Emoji is not in the allowed set", err)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Something went wrong", err)
	}
}
