package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmojiAllowed(t *testing.T) {
	for _, e := range AllowedEmojis {
		assert.True(t, EmojiAllowed(e), e)
	}

	assert.False(t, EmojiAllowed("🦖"))
	assert.False(t, EmojiAllowed(""))
	assert.False(t, EmojiAllowed("fire"))
}

func TestDelta_OmitsEmptyPayloads(t *testing.T) {
	raw, err := json.Marshal(Delta{Type: DeltaParticipantLeft, SessionID: "jam-1"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, DeltaParticipantLeft, decoded["type"])
	assert.NotContains(t, decoded, "playback")
	assert.NotContains(t, decoded, "current_track")
	assert.NotContains(t, decoded, "queue")
	assert.NotContains(t, decoded, "reaction")
}
