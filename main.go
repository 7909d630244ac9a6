package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"room-leaderboard-service/config"
	"room-leaderboard-service/handlers"
	"room-leaderboard-service/middleware"
	"room-leaderboard-service/models"
	"room-leaderboard-service/services"
	"room-leaderboard-service/utils"
	"room-leaderboard-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// 🔐❗ GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-Service-Token, X-User-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		if err := db.AutoMigrate(
			&models.ScoreSnapshot{},
			&models.RoomSettingsRevision{},
		); err != nil {
			log.Fatal("failed to migrate database:", err)
		}
	} else {
		log.Println("⚠️  DATABASE_URL not set, room revisions are kept in memory only")
	}

	scheduler := services.NewScheduler()
	if err := scheduler.Start(cfg.TickInterval); err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	var store services.RoomSettingsStore
	if db != nil {
		store = services.NewGormRoomSettingsStore(db)
	}
	rooms := services.NewRoomService(store)
	sessionRoom := rooms.CreateRoom()

	scoreManager := services.NewScoreManager()
	processor := services.NewScoreProcessor()
	gameplayConfig := services.GameplayConfigFromEnv(cfg)

	engine := services.NewLeaderboardEngine(cfg.TrackingUser, services.LeaderboardDeps{
		Scheduler:    scheduler,
		ScoreManager: scoreManager,
		Processor:    processor,
		Config:       gameplayConfig,
	})
	engine.AlwaysVisible.SetValue(cfg.LeaderboardAlwaysVisible)
	scheduler.Add(engine.Start)

	var lister services.ScoreLister
	switch {
	case cfg.ScoreService != "":
		lister = workers.NewHTTPScoreLister(cfg.ScoreService, cfg.ServiceToken)
	case db != nil:
		lister = services.NewGormScoreLister(db)
	}
	if lister != nil {
		syncWorker := workers.NewScoreSyncWorker(lister, scheduler, engine.Scores,
			func() (int, bool) { return rooms.BeatmapID(sessionRoom) },
			cfg.ScoreSyncInterval)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  No score listing source configured, snapshots arrive through the API only")
	}

	var uploader services.ObjectUploader
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Uploader(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		uploader = r2
	}
	archiver := services.NewStandingsArchiver(uploader)

	var streamAuth fiber.Handler
	switch {
	case cfg.AuthService != "":
		streamAuth = middleware.SSEAuthMiddleware(services.NewAuthServiceClient(cfg.AuthService, cfg.ServiceToken))
	case cfg.StreamTokenSecret != "":
		issuer := services.NewStreamTokenIssuer(cfg.StreamTokenSecret, cfg.StreamTokenTTL)
		streamAuth = middleware.SSEAuthMiddleware(issuer)
		handlers.SetupStreamTokenRoutes(app, &handlers.StreamTokenHandler{Issuer: issuer})
	default:
		log.Println("⚠️  Neither AUTH_SERVICE_URL nor STREAM_TOKEN_SECRET set, stream endpoints are open")
	}

	handlers.SetupRoomRoutes(app, &handlers.RoomHandler{Rooms: rooms, StreamAuth: streamAuth})
	handlers.SetupLeaderboardRoutes(app, &handlers.LeaderboardHandler{
		Engine:       engine,
		Scheduler:    scheduler,
		ScoreManager: scoreManager,
		Processor:    processor,
		Config:       gameplayConfig,
		Archiver:     archiver,
		SessionID:    sessionRoom,
		TrackingUser: cfg.TrackingUser,
		StreamAuth:   streamAuth,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Session room %s, tracking %s", sessionRoom, cfg.TrackingUser.ID)
	log.Println("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := scheduler.Stop(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	// drain pending mutations, then release every binding
	scheduler.Update()
	engine.Stop()
}
