package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetscribe/internal/calendar"
	"meetscribe/internal/config"
	"meetscribe/internal/database"
	"meetscribe/internal/handlers"
	"meetscribe/internal/jobs"
	"meetscribe/internal/logging"
	"meetscribe/internal/middleware"
	"meetscribe/internal/recall"
	"meetscribe/internal/services"
	"meetscribe/internal/store"
	"meetscribe/internal/summarize"
	"meetscribe/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting MeetScribe Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Environment: %s)", cfg.Port, cfg.Environment)

	// Storage: MongoDB when configured, in-memory otherwise (development only)
	var mongoDB *database.MongoDB
	var st *store.Store
	if cfg.MongoURI != "" {
		log.Println("🔗 Connecting to MongoDB...")
		var err error
		mongoDB, err = database.NewMongoDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Close(context.Background())

		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mongoDB.Initialize(initCtx); err != nil {
			cancel()
			log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
		}
		cancel()
		log.Println("✅ MongoDB connected successfully")

		st = store.NewMongo(mongoDB)
	} else {
		if cfg.IsProduction() {
			log.Fatal("❌ MONGODB_URI is required in production")
		}
		log.Println("⚠️  MONGODB_URI not set - using in-memory storage (development mode only)")
		st = store.NewMemory()
	}

	// Prometheus metrics
	services.InitMetrics()

	// External providers
	bots := recall.NewClient(cfg.RecallBaseURL, cfg.RecallAPIKey)
	if cfg.RecallAPIKey == "" {
		log.Println("⚠️  RECALL_API_KEY not set - bot dispatch will fail against the live API")
	}

	summarizer := summarize.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if cfg.OpenAIAPIKey == "" {
		log.Println("⚠️  OPENAI_API_KEY not set - meeting summaries will fail against the live API")
	}

	calendars := calendar.NewGoogleProvider(cfg.CalendarLookaheadDays)

	// Services
	reportService := services.NewReportService(st, bots, summarizer)
	eventService := services.NewEventService(st, calendars, reportService)
	accountService := services.NewAccountService(st, eventService)
	automationService := services.NewAutomationService(st)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := automationService.SeedBuiltins(seedCtx); err != nil {
		log.Printf("⚠️ Failed to seed builtin automations: %v", err)
	}
	cancel()

	// Session tokens
	var tokenService *auth.TokenService
	if cfg.JWTSecret != "" {
		var err error
		tokenService, err = auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
		if err != nil {
			log.Fatalf("❌ Failed to initialize token service: %v", err)
		}
		log.Println("✅ Session token service initialized")
	} else if cfg.IsProduction() {
		log.Fatal("❌ JWT_SECRET is required in production")
	} else {
		log.Println("⚠️  JWT_SECRET not set - all requests use a dev session (development mode only)")
	}

	// Background loops
	runner, err := jobs.NewRunner()
	if err != nil {
		log.Fatalf("❌ Failed to initialize job runner: %v", err)
	}
	if err := runner.Register(jobs.NewBotSender(st, reportService), cfg.BotSenderInterval, cfg.BotSenderCron); err != nil {
		log.Fatalf("❌ Failed to register bot sender: %v", err)
	}
	if err := runner.Register(jobs.NewBotManager(st, bots, reportService), cfg.BotManagerInterval, cfg.BotManagerCron); err != nil {
		log.Fatalf("❌ Failed to register bot manager: %v", err)
	}
	runner.Start()

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "MeetScribe v1.0",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("meetscribe")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Handlers
	healthHandler := handlers.NewHealthHandler(mongoDB)
	authHandler := handlers.NewAuthHandler(accountService, tokenService)
	eventHandler := handlers.NewEventHandler(eventService)
	reportHandler := handlers.NewReportHandler(reportService)
	automationHandler := handlers.NewAutomationHandler(automationService, accountService)
	settingsHandler := handlers.NewSettingsHandler(accountService)

	// Routes
	app.Get("/health", healthHandler.Health)

	api := app.Group("/api")
	api.Post("/auth/login", authHandler.Login)

	session := middleware.SessionMiddleware(tokenService)
	api.Post("/auth/merge", session, authHandler.Merge)
	api.Get("/auth/session", session, authHandler.Session)

	events := api.Group("/events", session)
	events.Get("/", eventHandler.List)
	events.Post("/sync", eventHandler.Sync)
	events.Get("/ongoing", eventHandler.Ongoing)
	events.Patch("/:id/bot", eventHandler.SetBot)

	reports := api.Group("/reports", session)
	reports.Get("/", reportHandler.List)
	reports.Get("/:id", reportHandler.Get)
	reports.Get("/:id/automations", reportHandler.Automations)

	automations := api.Group("/automations", session)
	automations.Get("/", automationHandler.List)
	automations.Post("/", automationHandler.Create)
	automations.Delete("/:id", automationHandler.Delete)
	automations.Post("/:id/subscription", automationHandler.Subscribe)
	automations.Delete("/:id/subscription", automationHandler.Unsubscribe)

	settings := api.Group("/settings", session)
	settings.Get("/", settingsHandler.Get)
	settings.Put("/", settingsHandler.Update)

	log.Printf("🌐 Server listening on http://localhost:%s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("🕐 Background jobs: bot sender (every %s), bot manager (every %s)", cfg.BotSenderInterval, cfg.BotManagerInterval)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := runner.Stop(); err != nil {
			log.Printf("⚠️ Error stopping job runner: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
