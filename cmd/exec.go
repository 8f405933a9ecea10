package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"jamsync/config"
	"jamsync/handlers"
	_ "jamsync/migrations"
	"jamsync/monitoring"
	"jamsync/realtime"
	"jamsync/security"
	"jamsync/services"
	"jamsync/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize the broadcast channel. With PubNub keys the service
	// fans out through PubNub; without them it falls back to in-process
	// delivery so a single node still works end to end.
	var broadcaster realtime.Broadcaster
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		broadcaster = realtime.NewPubNubBroadcaster(pubnub.NewPubNub(pnConfig))
		slog.Info("broadcast channel: pubnub")
	} else {
		broadcaster = realtime.NewMemoryBroadcaster()
		slog.Info("broadcast channel: in-process (no pubnub keys)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Monitoring and services need the bootstrapped app.
		var monitor *monitoring.Monitor
		if cfg.EnableMetrics {
			monitor = monitoring.NewMonitor(ctx, app)
			go serveMetrics(cfg.MetricsPort)
		}

		sessionLock := utils.NewSessionLock(redisClient, cfg.SessionLockTimeout)
		rosterService := services.NewRosterService(app)
		sessionService := services.NewSessionService(app, broadcaster, sessionLock, rosterService, cfg, monitor)
		queueService := services.NewQueueService(app, broadcaster, sessionLock, monitor)
		reactionService := services.NewReactionService(app, redisClient, broadcaster, cfg, monitor)
		syncService := services.NewSyncService(app, broadcaster, sessionService, rosterService, queueService, monitor)

		sessionHandler := handlers.NewSessionHandler(app, sessionService, syncService)
		queueHandler := handlers.NewQueueHandler(app, queueService)
		reactionHandler := handlers.NewReactionHandler(app, reactionService)

		rateLimiter := security.NewRateLimiter(redisClient, cfg)

		jam := e.Router.Group("/api/jam")
		jam.BindFunc(rateLimiter.Middleware("jam"))

		// Session endpoints
		jam.POST("/sessions", sessionHandler.CreateSession)
		jam.POST("/sessions/join", sessionHandler.JoinSession)
		jam.POST("/sessions/{sessionId}/leave", sessionHandler.LeaveSession)
		jam.PATCH("/sessions/{sessionId}/playback", sessionHandler.UpdatePlayback)
		jam.PUT("/sessions/{sessionId}/track", sessionHandler.UpdateTrack)
		jam.GET("/sessions/{sessionId}/snapshot", sessionHandler.GetSnapshot)

		// Queue endpoints
		jam.GET("/sessions/{sessionId}/queue", queueHandler.GetQueue)
		jam.POST("/sessions/{sessionId}/queue", queueHandler.AppendTrack)
		jam.DELETE("/sessions/{sessionId}/queue/{itemId}", queueHandler.RemoveTrack)
		jam.POST("/sessions/{sessionId}/queue/reorder", queueHandler.ReorderQueue)

		// Reaction endpoint
		jam.POST("/sessions/{sessionId}/reactions", reactionHandler.SendReaction)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	return app.Start()
}

// serveMetrics exposes Prometheus metrics on their own port, away from
// the public API.
func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
