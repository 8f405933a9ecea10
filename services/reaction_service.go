package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"jamsync/config"
	"jamsync/internal/status"
	"jamsync/models"
	"jamsync/monitoring"
	"jamsync/realtime"
)

// ReactionService fans ephemeral emoji events out to a session's
// subscribers. The per-(participant, emoji) cooldown lives in Redis as a
// SET NX key whose TTL is the window: the key's existence IS the Cooling
// state, so expiry needs no timers and holds across instances.
// Reactions never take the session lock; a flood of hearts must not
// stall a playback update.
type ReactionService struct {
	app         core.App
	Redis       *redis.Client
	broadcaster realtime.Broadcaster
	config      *config.Config
	monitor     *monitoring.Monitor
}

func NewReactionService(app core.App, redisClient *redis.Client, broadcaster realtime.Broadcaster, cfg *config.Config, monitor *monitoring.Monitor) *ReactionService {
	return &ReactionService{
		app:         app,
		Redis:       redisClient,
		broadcaster: broadcaster,
		config:      cfg,
		monitor:     monitor,
	}
}

func cooldownKey(sessionID, participantID, emoji string) string {
	return fmt.Sprintf("cooldown:%s:%s:%s", sessionID, participantID, emoji)
}

// Send broadcasts one reaction. It returns (false, nil) when the
// (participant, emoji) pair is still cooling, which is an expected
// outcome, not an error. The wire payload carries no animation metadata; every
// receiving client computes its own burst trajectory.
func (s *ReactionService) Send(ctx context.Context, sessionID, participantID, nickname, emoji, trackID string) (bool, error) {
	if !models.EmojiAllowed(emoji) {
		if s.monitor != nil {
			s.monitor.TrackReaction(emoji, "rejected")
		}
		return false, status.ErrInvalidEmoji
	}

	key := cooldownKey(sessionID, participantID, emoji)
	acquired, err := s.Redis.SetNX(ctx, key, 1, s.config.ReactionCooldown).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown check: %w", err)
	}
	if !acquired {
		if s.monitor != nil {
			s.monitor.TrackReaction(emoji, "cooldown")
		}
		return false, nil
	}

	reaction := models.Reaction{
		SessionID:   sessionID,
		Participant: participantID,
		Nickname:    nickname,
		Emoji:       emoji,
		TrackID:     trackID,
		CreatedAt:   time.Now().UTC(),
	}

	delta := models.Delta{
		Type:      models.DeltaReaction,
		SessionID: sessionID,
		Reaction:  &reaction,
		Timestamp: reaction.CreatedAt,
	}
	if err := s.broadcaster.Publish(ctx, realtime.ReactionTopic(sessionID), delta); err != nil {
		// The cooldown key stays set: a reaction that failed to fan out
		// was still "spent" from the sender's point of view.
		log.Printf("reaction broadcast failed for %s: %v", sessionID, err)
		if s.monitor != nil {
			s.monitor.TrackBroadcast("error")
		}
	} else if s.monitor != nil {
		s.monitor.TrackBroadcast("ok")
	}

	if s.monitor != nil {
		s.monitor.TrackReaction(emoji, "sent")
	}

	// Analytics persistence is fire-and-forget and must never block or
	// fail the broadcast path.
	if s.config.PersistReactions && s.app != nil {
		go s.persist(reaction)
	}

	return true, nil
}

func (s *ReactionService) persist(reaction models.Reaction) {
	collection, err := s.app.FindCollectionByNameOrId("reactions")
	if err != nil {
		log.Printf("reaction persist skipped: %v", err)
		return
	}

	rec := core.NewRecord(collection)
	rec.Set("session", reaction.SessionID)
	rec.Set("participant", reaction.Participant)
	rec.Set("nickname", reaction.Nickname)
	rec.Set("emoji", reaction.Emoji)
	rec.Set("track_id", reaction.TrackID)
	if err := s.app.Save(rec); err != nil {
		log.Printf("reaction persist failed: %v", err)
	}
}
