package models

import (
	"time"
)

const (
	PrivacyPublic    = "public"
	PrivacyPrivate   = "private"
	PrivacyCodeGated = "code_gated"
)

type Session struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Privacy         string    `json:"privacy"` // public, private, code_gated
	PlaylistID      string    `json:"playlist_id,omitempty"`
	PlaylistName    string    `json:"playlist_name,omitempty"`
	CurrentTrack    *Track    `json:"current_track"`
	Playback        Playback  `json:"playback"`
	IsActive        bool      `json:"is_active"`
	MaxParticipants int       `json:"max_participants"`
	CreatedAt       time.Time `json:"created_at"`
}

// Playback is the host-authoritative playback snapshot. Only the host
// participant may change it; everyone else converges on the broadcast copy.
type Playback struct {
	IsPlaying  bool      `json:"is_playing"`
	PositionMs int64     `json:"position_ms"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PlaybackDelta is a partial playback update. Nil fields are left unchanged.
type PlaybackDelta struct {
	IsPlaying  *bool  `json:"is_playing,omitempty"`
	PositionMs *int64 `json:"position_ms,omitempty"`
}
