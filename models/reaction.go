package models

import (
	"time"
)

// AllowedEmojis is the fixed reaction set. Anything else is rejected
// before the cooldown check.
var AllowedEmojis = []string{"🔥", "❤️", "🎉", "👏", "😂", "🎵"}

// Reaction is the wire payload of a single emoji burst. It carries no
// animation metadata: each receiving client computes its own trajectory,
// so two participants never render an identical burst.
type Reaction struct {
	SessionID   string    `json:"session_id"`
	Participant string    `json:"participant_id"`
	Nickname    string    `json:"nickname"`
	Emoji       string    `json:"emoji"`
	TrackID     string    `json:"track_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func EmojiAllowed(emoji string) bool {
	for _, e := range AllowedEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}
