package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"golang.org/x/crypto/bcrypt"

	"jamsync/config"
	"jamsync/internal/status"
	"jamsync/models"
	"jamsync/monitoring"
	"jamsync/realtime"
	"jamsync/utils"
)

// SessionService is the session registry: it owns session records, the
// authoritative playback snapshot and the host-authority rules. All
// mutations against one session are serialized under its Redis lock;
// different sessions proceed in parallel.
type SessionService struct {
	app         core.App
	broadcaster realtime.Broadcaster
	lock        *utils.SessionLock
	roster      *RosterService
	config      *config.Config
	monitor     *monitoring.Monitor
}

func NewSessionService(
	app core.App,
	broadcaster realtime.Broadcaster,
	lock *utils.SessionLock,
	roster *RosterService,
	cfg *config.Config,
	monitor *monitoring.Monitor,
) *SessionService {
	return &SessionService{
		app:         app,
		broadcaster: broadcaster,
		lock:        lock,
		roster:      roster,
		config:      cfg,
		monitor:     monitor,
	}
}

type CreateSessionParams struct {
	Name            string `json:"name"`
	Privacy         string `json:"privacy"`
	AccessCode      string `json:"access_code"`
	PlaylistID      string `json:"playlist_id"`
	PlaylistName    string `json:"playlist_name"`
	MaxParticipants int    `json:"max_participants"`
	HostNickname    string `json:"host_nickname"`
}

// Create registers a new session and its host participant atomically and
// returns the shareable code. Code collisions against active sessions are
// retried a bounded number of times and fatal once the budget runs out.
func (s *SessionService) Create(ctx context.Context, params CreateSessionParams) (models.Session, models.Participant, error) {
	var session models.Session
	var host models.Participant

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return session, host, err
	}

	privacy := params.Privacy
	if privacy == "" {
		privacy = models.PrivacyPublic
	}

	maxParticipants := params.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = s.config.DefaultMaxListeners
	}

	accessCodeHash := ""
	if privacy == models.PrivacyCodeGated {
		hash, err := bcrypt.GenerateFromPassword([]byte(params.AccessCode), bcrypt.DefaultCost)
		if err != nil {
			return session, host, fmt.Errorf("hash access code: %w", err)
		}
		accessCodeHash = string(hash)
	}

	err = s.app.RunInTransaction(func(txApp core.App) error {
		sessions, err := txApp.FindCollectionByNameOrId("sessions")
		if err != nil {
			return err
		}

		sessionRec := core.NewRecord(sessions)
		sessionRec.Set("code", code)
		sessionRec.Set("name", params.Name)
		sessionRec.Set("privacy", privacy)
		sessionRec.Set("access_code_hash", accessCodeHash)
		sessionRec.Set("playlist_id", params.PlaylistID)
		sessionRec.Set("playlist_name", params.PlaylistName)
		sessionRec.Set("is_playing", false)
		sessionRec.Set("position_ms", 0)
		sessionRec.Set("playback_updated", types.NowDateTime())
		sessionRec.Set("is_active", true)
		sessionRec.Set("max_participants", maxParticipants)
		if err := txApp.Save(sessionRec); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		hostRec, err := newParticipantRecord(txApp, sessionRec.Id, params.HostNickname, true)
		if err != nil {
			return err
		}

		session = sessionFromRecord(sessionRec)
		host = participantFromRecord(hostRec)
		return nil
	})
	if err != nil {
		return session, host, err
	}

	return session, host, nil
}

// Join adds a non-host participant to the active session matching code.
// The membership checks run under the session lock so maxParticipants and
// nickname uniqueness hold under concurrent joins.
func (s *SessionService) Join(ctx context.Context, code, nickname, accessCode string) (models.Session, models.Participant, error) {
	var session models.Session
	var participant models.Participant

	sessionRec, err := s.findActiveSessionByCode(ctx, code)
	if err != nil {
		return session, participant, err
	}

	if sessionRec.GetString("privacy") == models.PrivacyCodeGated {
		hash := sessionRec.GetString("access_code_hash")
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(accessCode)) != nil {
			return session, participant, status.ErrNotAuthorized
		}
	}

	err = s.lock.WithLock(ctx, sessionRec.Id, func() error {
		count, err := s.roster.CountActive(ctx, sessionRec.Id)
		if err != nil {
			return err
		}
		if count >= sessionRec.GetInt("max_participants") {
			return status.ErrSessionFull
		}

		taken, err := s.app.CountRecords("participants", dbx.HashExp{
			"session":   sessionRec.Id,
			"nickname":  nickname,
			"is_active": true,
		})
		if err != nil {
			return err
		}
		if taken > 0 {
			return status.ErrNicknameTaken
		}

		rec, err := newParticipantRecord(s.app, sessionRec.Id, nickname, false)
		if err != nil {
			return err
		}

		participant = participantFromRecord(rec)
		return nil
	})
	if err != nil {
		return session, participant, err
	}

	session = sessionFromRecord(sessionRec)

	s.publish(ctx, realtime.SessionTopic(session.ID), models.Delta{
		Type:        models.DeltaParticipantJoined,
		SessionID:   session.ID,
		Participant: &participant,
		Timestamp:   time.Now().UTC(),
	})

	return session, participant, nil
}

// Leave marks a participant inactive. When the host leaves there is no
// host handoff: the whole session is deactivated and a terminal
// session_ended delta is pushed so clients don't silently stall.
func (s *SessionService) Leave(ctx context.Context, sessionID, participantID string) error {
	rec, err := s.app.FindRecordById("participants", participantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrNotFound
		}
		return fmt.Errorf("find participant: %w", err)
	}
	if rec.GetString("session") != sessionID {
		return status.ErrNotFound
	}
	if !rec.GetBool("is_active") {
		// Leaving twice is a no-op.
		return nil
	}

	isHost := rec.GetBool("is_host")

	err = s.lock.WithLock(ctx, sessionID, func() error {
		return s.app.RunInTransaction(func(txApp core.App) error {
			rec.Set("is_active", false)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("deactivate participant: %w", err)
			}

			if !isHost {
				return nil
			}

			sessionRec, err := txApp.FindRecordById("sessions", sessionID)
			if err != nil {
				return fmt.Errorf("find session: %w", err)
			}
			sessionRec.Set("is_active", false)
			if err := txApp.Save(sessionRec); err != nil {
				return fmt.Errorf("deactivate session: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	participant := participantFromRecord(rec)
	now := time.Now().UTC()

	if isHost {
		ended := models.Delta{
			Type:      models.DeltaSessionEnded,
			SessionID: sessionID,
			Timestamp: now,
		}
		// Terminal event goes to both topics: reaction-only subscribers
		// must also learn the session is gone.
		s.publish(ctx, realtime.SessionTopic(sessionID), ended)
		s.publish(ctx, realtime.ReactionTopic(sessionID), ended)
		return nil
	}

	s.publish(ctx, realtime.SessionTopic(sessionID), models.Delta{
		Type:        models.DeltaParticipantLeft,
		SessionID:   sessionID,
		Participant: &participant,
		Timestamp:   now,
	})
	return nil
}

// UpdatePlaybackState merges a host-issued partial update into the
// playback snapshot and republishes it. Non-hosts get NotAuthorized.
func (s *SessionService) UpdatePlaybackState(ctx context.Context, sessionID, hostID string, delta models.PlaybackDelta) (models.Playback, error) {
	var playback models.Playback

	err := s.lock.WithLock(ctx, sessionID, func() error {
		sessionRec, err := s.findActiveSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := s.requireHost(ctx, sessionID, hostID); err != nil {
			return err
		}

		if delta.IsPlaying != nil {
			sessionRec.Set("is_playing", *delta.IsPlaying)
		}
		if delta.PositionMs != nil {
			sessionRec.Set("position_ms", *delta.PositionMs)
		}
		sessionRec.Set("playback_updated", types.NowDateTime())

		if err := s.app.Save(sessionRec); err != nil {
			return fmt.Errorf("save playback state: %w", err)
		}

		playback = sessionFromRecord(sessionRec).Playback
		return nil
	})
	if err != nil {
		return playback, err
	}

	s.publish(ctx, realtime.SessionTopic(sessionID), models.Delta{
		Type:      models.DeltaPlayback,
		SessionID: sessionID,
		Playback:  &playback,
		Timestamp: time.Now().UTC(),
	})

	return playback, nil
}

// UpdateCurrentTrack replaces the current track (nil clears it) and
// resets playback: changing the track always restarts from position 0.
func (s *SessionService) UpdateCurrentTrack(ctx context.Context, sessionID, hostID string, track *models.Track) (models.Playback, error) {
	var playback models.Playback

	err := s.lock.WithLock(ctx, sessionID, func() error {
		sessionRec, err := s.findActiveSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := s.requireHost(ctx, sessionID, hostID); err != nil {
			return err
		}

		setTrack(sessionRec, "current_track", track)
		sessionRec.Set("is_playing", track != nil)
		sessionRec.Set("position_ms", 0)
		sessionRec.Set("playback_updated", types.NowDateTime())

		if err := s.app.Save(sessionRec); err != nil {
			return fmt.Errorf("save current track: %w", err)
		}

		playback = sessionFromRecord(sessionRec).Playback
		return nil
	})
	if err != nil {
		return playback, err
	}

	s.publish(ctx, realtime.SessionTopic(sessionID), models.Delta{
		Type:         models.DeltaCurrentTrack,
		SessionID:    sessionID,
		CurrentTrack: track,
		Playback:     &playback,
		Timestamp:    time.Now().UTC(),
	})

	return playback, nil
}

// generateUniqueCode draws codes until one has no active-session
// collision, giving up after the configured attempt budget.
func (s *SessionService) generateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.config.CodeMaxAttempts; attempt++ {
		code, err := utils.GenerateSessionCode(s.config.CodeLength)
		if err != nil {
			return "", err
		}

		count, err := s.app.CountRecords("sessions", dbx.HashExp{
			"code":      code,
			"is_active": true,
		})
		if err != nil {
			return "", fmt.Errorf("check code collision: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", status.ErrCodeExhausted
}

func (s *SessionService) findActiveSession(ctx context.Context, sessionID string) (*core.Record, error) {
	rec, err := s.app.FindRecordById("sessions", sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !rec.GetBool("is_active") {
		return nil, status.ErrSessionEnded
	}
	return rec, nil
}

func (s *SessionService) findActiveSessionByCode(ctx context.Context, code string) (*core.Record, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"sessions",
		"code = {:code} && is_active = true",
		dbx.Params{"code": strings.ToUpper(strings.TrimSpace(code))},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find session by code: %w", err)
	}
	return rec, nil
}

// requireHost rejects any caller that isn't the session's current active
// host.
func (s *SessionService) requireHost(ctx context.Context, sessionID, participantID string) error {
	rec, err := s.app.FindRecordById("participants", participantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrNotAuthorized
		}
		return fmt.Errorf("find host candidate: %w", err)
	}

	if rec.GetString("session") != sessionID || !rec.GetBool("is_host") || !rec.GetBool("is_active") {
		return status.ErrNotAuthorized
	}
	return nil
}

// publish fans a delta out, logging and swallowing transport failures:
// the durable mutation already happened, and the durable record is the
// source of truth.
func (s *SessionService) publish(ctx context.Context, topic string, delta models.Delta) {
	if err := s.broadcaster.Publish(ctx, topic, delta); err != nil {
		log.Printf("broadcast publish failed on %s: %v", topic, err)
		if s.monitor != nil {
			s.monitor.TrackBroadcast("error")
		}
		return
	}
	if s.monitor != nil {
		s.monitor.TrackBroadcast("ok")
	}
}

// newParticipantRecord creates and saves a participant row.
func newParticipantRecord(app core.App, sessionID, nickname string, isHost bool) (*core.Record, error) {
	participants, err := app.FindCollectionByNameOrId("participants")
	if err != nil {
		return nil, err
	}

	rec := core.NewRecord(participants)
	rec.Set("session", sessionID)
	rec.Set("nickname", nickname)
	rec.Set("avatar_color", PickAvatarColor())
	rec.Set("is_host", isHost)
	rec.Set("is_active", true)
	rec.Set("joined_at", types.NowDateTime())
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save participant: %w", err)
	}
	return rec, nil
}
