package services

import (
	"context"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"jamsync/models"
	"jamsync/monitoring"
	"jamsync/realtime"
)

// SyncService is the synchronization orchestrator. Its job is the
// reconcile-then-stream join protocol: subscribe first, then read the
// full snapshot directly from the durable store, so a late joiner
// converges on the same state as everyone else without any message
// replay infrastructure.
type SyncService struct {
	app         core.App
	broadcaster realtime.Broadcaster
	roster      *RosterService
	queue       *QueueService
	sessions    *SessionService
	monitor     *monitoring.Monitor
}

func NewSyncService(
	app core.App,
	broadcaster realtime.Broadcaster,
	sessions *SessionService,
	roster *RosterService,
	queue *QueueService,
	monitor *monitoring.Monitor,
) *SyncService {
	return &SyncService{
		app:         app,
		broadcaster: broadcaster,
		sessions:    sessions,
		roster:      roster,
		queue:       queue,
		monitor:     monitor,
	}
}

// Subscribe opens the delta stream for a session and returns the
// snapshot to reconcile against. The subscription is opened before the
// snapshot is read: anything published during the read is waiting on the
// stream, so nothing is lost between the two phases. Callers must Close
// the subscription when done; Close is idempotent.
func (s *SyncService) Subscribe(ctx context.Context, sessionID string) (models.Snapshot, *realtime.Subscription, error) {
	sub, err := s.broadcaster.Subscribe(realtime.SessionTopic(sessionID))
	if err != nil {
		return models.Snapshot{}, nil, err
	}

	snapshot, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		sub.Close()
		return models.Snapshot{}, nil, err
	}

	return snapshot, sub, nil
}

// SubscribeReactions opens the ephemeral reaction stream. Kept separate
// from the authoritative stream so reaction bursts can never head-of-line
// block a playback delta.
func (s *SyncService) SubscribeReactions(sessionID string) (*realtime.Subscription, error) {
	return s.broadcaster.Subscribe(realtime.ReactionTopic(sessionID))
}

// Snapshot assembles the full current state of an active session from
// the durable store: metadata, playback, current track, queue, roster.
func (s *SyncService) Snapshot(ctx context.Context, sessionID string) (models.Snapshot, error) {
	started := time.Now()

	sessionRec, err := s.sessions.findActiveSession(ctx, sessionID)
	if err != nil {
		return models.Snapshot{}, err
	}

	participants, err := s.roster.ListActive(ctx, sessionID)
	if err != nil {
		return models.Snapshot{}, err
	}

	queue, err := s.queue.List(ctx, sessionID)
	if err != nil {
		return models.Snapshot{}, err
	}

	snapshot := models.Snapshot{
		Session:      sessionFromRecord(sessionRec),
		Participants: participants,
		Queue:        queue,
		TakenAt:      time.Now().UTC(),
	}

	if s.monitor != nil {
		s.monitor.TrackSnapshot(time.Since(started))
	}
	return snapshot, nil
}

// Leave tears down a participant's membership. The unsubscribe happens
// before the roster update completes so the caller never keeps receiving
// broadcasts for a session it has logically left.
func (s *SyncService) Leave(ctx context.Context, sessionID, participantID string, sub *realtime.Subscription) error {
	if sub != nil {
		sub.Close()
	}
	return s.sessions.Leave(ctx, sessionID, participantID)
}
