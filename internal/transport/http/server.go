package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"putrace/internal/config"
	"putrace/internal/database"
	"putrace/internal/handler"
	"putrace/internal/queue"
	"putrace/internal/redis"
	"putrace/internal/repository"
	"putrace/internal/scheduler"
	"putrace/internal/service"
	"putrace/internal/worker"
)

// Run wires the whole application together and blocks until shutdown:
// database, Redis, repositories, services, the content worker pool, the
// periodic jobs, and the HTTP server.
func Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Postgres
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis (event stream)
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	contactTokenRepo := repository.NewContactTokenRepository(db)
	edgeRepo := repository.NewGraphEdgeRepository(db)
	groupRepo := repository.NewAudienceGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	availRepo := repository.NewAvailabilityRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	deviceTokenRepo := repository.NewDeviceTokenRepository(db)
	presenceRepo := repository.NewPresenceRepository(db)
	proximityTokenRepo := repository.NewProximityTokenRepository(db)
	cleanupRepo := repository.NewCleanupRepository(db)

	// 5. Push gateway (optional; alerts still persist without it)
	var pushSender service.PushSender
	if cfg.FCMProjectID != "" && cfg.FCMClientEmail != "" && cfg.FCMPrivateKey != "" {
		fcmClient, err := service.NewFCMClient(ctx, cfg.FCMProjectID, cfg.FCMClientEmail, cfg.FCMPrivateKey)
		if err != nil {
			return fmt.Errorf("failed to initialize FCM: %w", err)
		}
		pushSender = fcmClient
	} else {
		log.Println("FCM not configured, push notifications disabled")
	}

	// 6. Object storage (optional; only the contact import needs it)
	var storage service.ObjectStorage
	if cfg.R2AccountID != "" {
		r2, err := service.NewR2Storage(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize R2 storage: %w", err)
		}
		storage = r2
	} else {
		log.Println("R2 not configured, contact import disabled")
	}

	// 7. Services
	publisher := queue.NewPublisher(redisClient.Client)
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	audienceService := service.NewAudienceService(edgeRepo, groupRepo, postRepo)
	overlapService := service.NewOverlapService(postRepo)
	fanoutService := service.NewFanoutService(alertRepo, deviceTokenRepo, pushSender)
	contentService := service.NewContentService(postRepo, availRepo, groupRepo, publisher)
	alertService := service.NewAlertService(alertRepo, deviceTokenRepo)
	presenceService := service.NewPresenceService(presenceRepo)
	proximityService := service.NewProximityService(proximityTokenRepo, edgeRepo, userRepo)
	importService := service.NewImportService(storage, contactTokenRepo)

	// 8. Content workers (audience resolution and fan-out pipeline)
	consumer := queue.NewConsumer(redisClient.Client)
	eventHandler := worker.NewHandler(audienceService, overlapService, fanoutService, postRepo, availRepo)
	workerManager := worker.NewManager(consumer, eventHandler, worker.ManagerConfig{
		WorkerCount: cfg.WorkerCount,
	})
	if err := workerManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer workerManager.Stop()

	// 9. Periodic jobs: graph rebuild and ephemeral cleanup
	jobs := scheduler.New()
	jobs.Register(service.NewGraphBuilder(contactTokenRepo, edgeRepo), cfg.GraphBuildInterval)
	jobs.Register(service.NewEphemeralReaper(cleanupRepo), cfg.ReapInterval)
	jobs.Start(ctx)
	defer jobs.Stop()

	// 10. HTTP routes
	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(userService, authService),
		PostHandler:         handler.NewPostHandler(contentService),
		AvailabilityHandler: handler.NewAvailabilityHandler(contentService),
		GroupHandler:        handler.NewGroupHandler(contentService),
		AlertHandler:        handler.NewAlertHandler(alertService),
		PresenceHandler:     handler.NewPresenceHandler(presenceService),
		ProximityHandler:    handler.NewProximityHandler(proximityService),
		ContactHandler:      handler.NewContactHandler(importService),
		JWTSecret:           cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// 11. Serve until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		log.Printf("Received %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
