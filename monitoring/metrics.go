package monitoring

import (
	"context"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jam_sessions_active_total",
			Help: "Current number of active sessions",
		},
	)

	activeParticipants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jam_participants_active_total",
			Help: "Current number of active participants across all sessions",
		},
	)

	reactionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jam_reactions_total",
			Help: "Reaction sends by emoji and outcome",
		},
		[]string{"emoji", "status"},
	)

	broadcastPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jam_broadcast_publish_total",
			Help: "Broadcast publish attempts by outcome",
		},
		[]string{"status"},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jam_queue_operations_total",
			Help: "Shared queue mutations by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	snapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jam_snapshot_build_seconds",
			Help:    "Time to assemble a full session snapshot",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

type Monitor struct {
	app core.App
}

func NewMonitor(ctx context.Context, app core.App) *Monitor {
	monitor := &Monitor{app: app}

	go monitor.collectMetrics(ctx)

	return monitor
}

func (m *Monitor) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectSessionMetrics()
		}
	}
}

func (m *Monitor) collectSessionMetrics() {
	sessions, err := m.app.CountRecords("sessions", dbx.HashExp{"is_active": true})
	if err == nil {
		activeSessions.Set(float64(sessions))
	}

	participants, err := m.app.CountRecords("participants", dbx.HashExp{"is_active": true})
	if err == nil {
		activeParticipants.Set(float64(participants))
	}
}

// TrackReaction records a reaction send outcome: sent, cooldown, rejected.
func (m *Monitor) TrackReaction(emoji, status string) {
	reactionEvents.WithLabelValues(emoji, status).Inc()
}

// TrackBroadcast records a broadcast publish outcome.
func (m *Monitor) TrackBroadcast(status string) {
	broadcastPublishes.WithLabelValues(status).Inc()
}

// TrackQueueOperation records a queue mutation outcome.
func (m *Monitor) TrackQueueOperation(operation, status string) {
	queueOperations.WithLabelValues(operation, status).Inc()
}

// TrackSnapshot records snapshot assembly time.
func (m *Monitor) TrackSnapshot(duration time.Duration) {
	snapshotDuration.Observe(duration.Seconds())
}
