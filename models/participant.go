package models

import (
	"time"
)

type Participant struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Nickname    string    `json:"nickname"`
	AvatarColor string    `json:"avatar_color"`
	IsHost      bool      `json:"is_host"`
	IsActive    bool      `json:"is_active"`
	JoinedAt    time.Time `json:"joined_at"`
}

// AvatarPalette is the fixed set of avatar colors. Assignment is random
// and collision-tolerant: two participants may share a color.
var AvatarPalette = []string{
	"#e63946", "#f4a261", "#e9c46a", "#2a9d8f",
	"#264653", "#457b9d", "#a8dadc", "#b5838d",
	"#6d6875", "#80ed99", "#ff70a6", "#9b5de5",
}
