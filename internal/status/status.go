package status

import "errors"

// Domain outcomes surfaced by the session, queue and reaction services.
// Handlers map these onto HTTP responses; none of them is ever retried.
var (
	ErrNotFound        = errors.New("session: not found")
	ErrNotAuthorized   = errors.New("session: not authorized")
	ErrNicknameTaken   = errors.New("session: nickname taken")
	ErrSessionFull     = errors.New("session: full")
	ErrSessionEnded    = errors.New("session: ended")
	ErrInvalidPosition = errors.New("queue: invalid position")
	ErrInvalidEmoji    = errors.New("reaction: emoji not allowed")
	ErrCodeExhausted   = errors.New("session: code generation attempts exhausted")
)
