package models

import (
	"time"
)

// QueueItem is one pending track in a session's shared queue. Position
// values are dense and zero-based: after any mutation they are exactly
// 0..n-1 with no gaps or duplicates.
type QueueItem struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Track     Track     `json:"track"`
	AddedBy   string    `json:"added_by"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
