package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"jamsync/internal/status"
	"jamsync/models"
)

// RosterService tracks who is connected to a session. Participants are
// soft-deleted only: late realtime messages may still reference their id,
// so the record must outlive the membership.
type RosterService struct {
	app core.App
}

func NewRosterService(app core.App) *RosterService {
	return &RosterService{app: app}
}

// ListActive returns the active participants of a session ordered by
// join time. The ordering is stable so the UI and any future host
// handoff logic agree on "earliest joined".
func (s *RosterService) ListActive(ctx context.Context, sessionID string) ([]models.Participant, error) {
	records, err := s.app.FindRecordsByFilter(
		"participants",
		"session = {:session} && is_active = true",
		"joined_at",
		0,
		0,
		dbx.Params{"session": sessionID},
	)
	if err != nil {
		return nil, fmt.Errorf("list active participants: %w", err)
	}

	participants := make([]models.Participant, 0, len(records))
	for _, rec := range records {
		participants = append(participants, participantFromRecord(rec))
	}
	return participants, nil
}

// CountActive returns the active-participant count for a session.
func (s *RosterService) CountActive(ctx context.Context, sessionID string) (int, error) {
	count, err := s.app.CountRecords("participants", dbx.HashExp{
		"session":   sessionID,
		"is_active": true,
	})
	return int(count), err
}

// MarkInactive soft-deletes a participant. Idempotent: marking an
// already-inactive participant is a no-op, not an error.
func (s *RosterService) MarkInactive(ctx context.Context, participantID string) (models.Participant, error) {
	rec, err := s.app.FindRecordById("participants", participantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Participant{}, status.ErrNotFound
		}
		return models.Participant{}, fmt.Errorf("find participant: %w", err)
	}

	if rec.GetBool("is_active") {
		rec.Set("is_active", false)
		if err := s.app.Save(rec); err != nil {
			return models.Participant{}, fmt.Errorf("deactivate participant: %w", err)
		}
	}

	return participantFromRecord(rec), nil
}

// PickAvatarColor selects a random color from the fixed palette.
// Collisions between participants are fine; the color is cosmetic,
// not an identity.
func PickAvatarColor() string {
	return models.AvatarPalette[rand.Intn(len(models.AvatarPalette))]
}
