package models

import (
	"time"
)

// Delta types published on a session's broadcast topics.
const (
	DeltaPlayback          = "playback_state"
	DeltaCurrentTrack      = "current_track"
	DeltaParticipantJoined = "participant_joined"
	DeltaParticipantLeft   = "participant_left"
	DeltaQueueUpdated      = "queue_updated"
	DeltaReaction          = "reaction"
	DeltaSessionEnded      = "session_ended"
)

// Delta is an incremental broadcast message. Only the fields relevant to
// its Type are set; everything else is omitted from the wire format.
type Delta struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`

	Playback     *Playback    `json:"playback,omitempty"`
	CurrentTrack *Track       `json:"current_track,omitempty"`
	Participant  *Participant `json:"participant,omitempty"`
	Queue        []QueueItem  `json:"queue,omitempty"`
	Reaction     *Reaction    `json:"reaction,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the full session state read directly from the durable store
// during the reconcile phase of a join. A late subscriber applies this
// first, then the delta stream.
type Snapshot struct {
	Session      Session       `json:"session"`
	Participants []Participant `json:"participants"`
	Queue        []QueueItem   `json:"queue"`
	TakenAt      time.Time     `json:"taken_at"`
}
