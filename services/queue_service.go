package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"jamsync/internal/status"
	"jamsync/models"
	"jamsync/monitoring"
	"jamsync/realtime"
	"jamsync/utils"
)

// QueueService owns the shared upcoming-tracks queue. Every mutation for
// a session runs under that session's lock and inside one transaction, so
// the dense 0..n-1 position invariant is never observable mid-renumber.
// Queue mutations are open to any participant; host authority applies to
// playback, not the queue.
type QueueService struct {
	app         core.App
	broadcaster realtime.Broadcaster
	lock        *utils.SessionLock
	monitor     *monitoring.Monitor
}

func NewQueueService(app core.App, broadcaster realtime.Broadcaster, lock *utils.SessionLock, monitor *monitoring.Monitor) *QueueService {
	return &QueueService{
		app:         app,
		broadcaster: broadcaster,
		lock:        lock,
		monitor:     monitor,
	}
}

// List returns the session's queue ordered by position.
func (s *QueueService) List(ctx context.Context, sessionID string) ([]models.QueueItem, error) {
	records, err := s.app.FindRecordsByFilter(
		"queue_items",
		"session = {:session}",
		"position",
		0,
		0,
		dbx.Params{"session": sessionID},
	)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}

	items := make([]models.QueueItem, 0, len(records))
	for _, rec := range records {
		items = append(items, queueItemFromRecord(rec))
	}
	return items, nil
}

// Append adds a track at the tail of the queue.
func (s *QueueService) Append(ctx context.Context, sessionID string, track models.Track, addedBy string) (models.QueueItem, error) {
	var item models.QueueItem

	err := s.lock.WithLock(ctx, sessionID, func() error {
		return s.app.RunInTransaction(func(txApp core.App) error {
			count, err := txApp.CountRecords("queue_items", dbx.HashExp{"session": sessionID})
			if err != nil {
				return fmt.Errorf("count queue items: %w", err)
			}

			collection, err := txApp.FindCollectionByNameOrId("queue_items")
			if err != nil {
				return err
			}

			rec := core.NewRecord(collection)
			rec.Set("session", sessionID)
			setTrack(rec, "track", &track)
			rec.Set("added_by", addedBy)
			rec.Set("position", int(count))
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save queue item: %w", err)
			}

			item = queueItemFromRecord(rec)
			return nil
		})
	})

	s.trackOperation("append", err)
	if err != nil {
		return item, err
	}

	s.publishQueue(ctx, sessionID)
	return item, nil
}

// Remove deletes an item and closes the gap in the same transaction.
func (s *QueueService) Remove(ctx context.Context, sessionID, itemID string) error {
	err := s.lock.WithLock(ctx, sessionID, func() error {
		return s.app.RunInTransaction(func(txApp core.App) error {
			rec, err := txApp.FindRecordById("queue_items", itemID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return status.ErrNotFound
				}
				return fmt.Errorf("find queue item: %w", err)
			}
			if rec.GetString("session") != sessionID {
				return status.ErrNotFound
			}

			removed := rec.GetInt("position")

			if err := txApp.Delete(rec); err != nil {
				return fmt.Errorf("delete queue item: %w", err)
			}

			_, err = txApp.DB().NewQuery(
				"UPDATE queue_items SET position = position - 1 WHERE session = {:session} AND position > {:pos}",
			).Bind(dbx.Params{"session": sessionID, "pos": removed}).Execute()
			if err != nil {
				return fmt.Errorf("renumber after remove: %w", err)
			}
			return nil
		})
	})

	s.trackOperation("remove", err)
	if err != nil {
		return err
	}

	s.publishQueue(ctx, sessionID)
	return nil
}

// Reorder moves the item at from to position to, renumbering everything
// between them. from == to is a silent no-op; out-of-range positions fail
// with InvalidPosition.
func (s *QueueService) Reorder(ctx context.Context, sessionID string, from, to int) error {
	if from == to {
		return nil
	}

	err := s.lock.WithLock(ctx, sessionID, func() error {
		return s.app.RunInTransaction(func(txApp core.App) error {
			count, err := txApp.CountRecords("queue_items", dbx.HashExp{"session": sessionID})
			if err != nil {
				return fmt.Errorf("count queue items: %w", err)
			}
			if from < 0 || to < 0 || from >= int(count) || to >= int(count) {
				return status.ErrInvalidPosition
			}

			rec, err := txApp.FindFirstRecordByFilter(
				"queue_items",
				"session = {:session} && position = {:pos}",
				dbx.Params{"session": sessionID, "pos": from},
			)
			if err != nil {
				return fmt.Errorf("find item at position %d: %w", from, err)
			}

			lo, hi, delta := ShiftWindow(from, to)
			_, err = txApp.DB().NewQuery(
				"UPDATE queue_items SET position = position + {:delta} WHERE session = {:session} AND position >= {:lo} AND position <= {:hi}",
			).Bind(dbx.Params{"session": sessionID, "delta": delta, "lo": lo, "hi": hi}).Execute()
			if err != nil {
				return fmt.Errorf("renumber for reorder: %w", err)
			}

			rec.Set("position", to)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save reordered item: %w", err)
			}
			return nil
		})
	})

	s.trackOperation("reorder", err)
	if err != nil {
		return err
	}

	s.publishQueue(ctx, sessionID)
	return nil
}

// ShiftWindow computes the inclusive position range [lo, hi] that must
// shift by delta when the item at from moves to to. The moved item itself
// is excluded from the window; it lands exactly on to afterwards.
func ShiftWindow(from, to int) (lo, hi, delta int) {
	if from < to {
		return from + 1, to, -1
	}
	return to, from - 1, +1
}

func (s *QueueService) trackOperation(operation string, err error) {
	if s.monitor == nil {
		return
	}
	if err != nil {
		s.monitor.TrackQueueOperation(operation, "error")
		return
	}
	s.monitor.TrackQueueOperation(operation, "ok")
}

// publishQueue broadcasts the resulting ordered queue. Failures are
// logged and swallowed; the durable state already moved.
func (s *QueueService) publishQueue(ctx context.Context, sessionID string) {
	items, err := s.List(ctx, sessionID)
	if err != nil {
		log.Printf("queue broadcast skipped, re-list failed for %s: %v", sessionID, err)
		return
	}

	delta := models.Delta{
		Type:      models.DeltaQueueUpdated,
		SessionID: sessionID,
		Queue:     items,
		Timestamp: time.Now().UTC(),
	}
	if err := s.broadcaster.Publish(ctx, realtime.SessionTopic(sessionID), delta); err != nil {
		log.Printf("queue broadcast failed for %s: %v", sessionID, err)
		if s.monitor != nil {
			s.monitor.TrackBroadcast("error")
		}
		return
	}
	if s.monitor != nil {
		s.monitor.TrackBroadcast("ok")
	}
}
