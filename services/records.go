package services

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"jamsync/models"
)

// Mapping between PocketBase records and the wire/domain structs.
// Collection field names mirror the migrations in migrations/.

func sessionFromRecord(rec *core.Record) models.Session {
	return models.Session{
		ID:           rec.Id,
		Code:         rec.GetString("code"),
		Name:         rec.GetString("name"),
		Privacy:      rec.GetString("privacy"),
		PlaylistID:   rec.GetString("playlist_id"),
		PlaylistName: rec.GetString("playlist_name"),
		CurrentTrack: trackFromRecord(rec, "current_track"),
		Playback: models.Playback{
			IsPlaying:  rec.GetBool("is_playing"),
			PositionMs: int64(rec.GetInt("position_ms")),
			UpdatedAt:  rec.GetDateTime("playback_updated").Time(),
		},
		IsActive:        rec.GetBool("is_active"),
		MaxParticipants: rec.GetInt("max_participants"),
		CreatedAt:       rec.GetDateTime("created").Time(),
	}
}

func participantFromRecord(rec *core.Record) models.Participant {
	return models.Participant{
		ID:          rec.Id,
		SessionID:   rec.GetString("session"),
		Nickname:    rec.GetString("nickname"),
		AvatarColor: rec.GetString("avatar_color"),
		IsHost:      rec.GetBool("is_host"),
		IsActive:    rec.GetBool("is_active"),
		JoinedAt:    rec.GetDateTime("joined_at").Time(),
	}
}

func queueItemFromRecord(rec *core.Record) models.QueueItem {
	item := models.QueueItem{
		ID:        rec.Id,
		SessionID: rec.GetString("session"),
		AddedBy:   rec.GetString("added_by"),
		Position:  rec.GetInt("position"),
		CreatedAt: rec.GetDateTime("created").Time(),
	}
	if track := trackFromRecord(rec, "track"); track != nil {
		item.Track = *track
	}
	return item
}

// trackFromRecord decodes a json field into a Track, nil when unset.
func trackFromRecord(rec *core.Record, field string) *models.Track {
	raw := rec.GetString(field)
	if raw == "" || raw == "null" {
		return nil
	}

	var track models.Track
	if err := json.Unmarshal([]byte(raw), &track); err != nil {
		return nil
	}
	if track.ID == "" {
		return nil
	}
	return &track
}

// setTrack writes a Track into a json field; nil clears it.
func setTrack(rec *core.Record, field string, track *models.Track) {
	if track == nil {
		rec.Set(field, nil)
		return
	}
	data, _ := json.Marshal(track)
	rec.Set(field, types.JSONRaw(data))
}
