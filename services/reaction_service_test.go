package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamsync/config"
	"jamsync/internal/status"
	"jamsync/models"
	"jamsync/realtime"
)

func setupTestReactionService() (*ReactionService, redismock.ClientMock, *realtime.MemoryBroadcaster) {
	db, mock := redismock.NewClientMock()
	broadcaster := realtime.NewMemoryBroadcaster()
	cfg := &config.Config{
		ReactionCooldown: 1500 * time.Millisecond,
		PersistReactions: false,
	}

	service := NewReactionService(nil, db, broadcaster, cfg, nil)
	return service, mock, broadcaster
}

func TestReactionService_SendBroadcasts(t *testing.T) {
	service, mock, broadcaster := setupTestReactionService()
	defer mock.ClearExpect()

	sub, err := broadcaster.Subscribe(realtime.ReactionTopic("jam-1"))
	require.NoError(t, err)
	defer sub.Close()

	mock.ExpectSetNX("cooldown:jam-1:p1:🔥", 1, 1500*time.Millisecond).SetVal(true)

	sent, err := service.Send(context.Background(), "jam-1", "p1", "ada", "🔥", "track-9")

	require.NoError(t, err)
	assert.True(t, sent)

	select {
	case delta := <-sub.C:
		assert.Equal(t, models.DeltaReaction, delta.Type)
		require.NotNil(t, delta.Reaction)
		assert.Equal(t, "🔥", delta.Reaction.Emoji)
		assert.Equal(t, "ada", delta.Reaction.Nickname)
		assert.Equal(t, "track-9", delta.Reaction.TrackID)
	case <-time.After(time.Second):
		t.Fatal("no reaction delta received")
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionService_CooldownRejectsWithoutBroadcast(t *testing.T) {
	service, mock, broadcaster := setupTestReactionService()
	defer mock.ClearExpect()

	sub, err := broadcaster.Subscribe(realtime.ReactionTopic("jam-1"))
	require.NoError(t, err)
	defer sub.Close()

	// The (participant, emoji) pair is still cooling.
	mock.ExpectSetNX("cooldown:jam-1:p1:🔥", 1, 1500*time.Millisecond).SetVal(false)

	sent, err := service.Send(context.Background(), "jam-1", "p1", "ada", "🔥", "")

	require.NoError(t, err)
	assert.False(t, sent)

	select {
	case <-sub.C:
		t.Fatal("throttled reaction must not broadcast")
	default:
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionService_CooldownIsPerEmoji(t *testing.T) {
	service, mock, _ := setupTestReactionService()
	defer mock.ClearExpect()

	// 🔥 is cooling, ❤️ is not: different emojis never share a window.
	mock.ExpectSetNX("cooldown:jam-1:p1:🔥", 1, 1500*time.Millisecond).SetVal(false)
	mock.ExpectSetNX("cooldown:jam-1:p1:❤️", 1, 1500*time.Millisecond).SetVal(true)

	sent, err := service.Send(context.Background(), "jam-1", "p1", "ada", "🔥", "")
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = service.Send(context.Background(), "jam-1", "p1", "ada", "❤️", "")
	require.NoError(t, err)
	assert.True(t, sent)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionService_ReadyAgainAfterWindow(t *testing.T) {
	service, mock, _ := setupTestReactionService()
	defer mock.ClearExpect()

	mock.ExpectSetNX("cooldown:jam-1:p1:🎉", 1, 1500*time.Millisecond).SetVal(true)
	mock.ExpectSetNX("cooldown:jam-1:p1:🎉", 1, 1500*time.Millisecond).SetVal(false)
	// Key expired, so the pair is ready again.
	mock.ExpectSetNX("cooldown:jam-1:p1:🎉", 1, 1500*time.Millisecond).SetVal(true)

	sent, _ := service.Send(context.Background(), "jam-1", "p1", "ada", "🎉", "")
	assert.True(t, sent)

	sent, _ = service.Send(context.Background(), "jam-1", "p1", "ada", "🎉", "")
	assert.False(t, sent)

	sent, _ = service.Send(context.Background(), "jam-1", "p1", "ada", "🎉", "")
	assert.True(t, sent)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionService_RejectsUnknownEmoji(t *testing.T) {
	service, mock, _ := setupTestReactionService()
	defer mock.ClearExpect()

	sent, err := service.Send(context.Background(), "jam-1", "p1", "ada", "🦖", "")

	assert.ErrorIs(t, err, status.ErrInvalidEmoji)
	assert.False(t, sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
