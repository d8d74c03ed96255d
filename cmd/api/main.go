package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/twodc/pre-view-sub000/internal/config"
	"github.com/twodc/pre-view-sub000/internal/handlers"
	"github.com/twodc/pre-view-sub000/internal/metrics"
	"github.com/twodc/pre-view-sub000/internal/repositories"
	"github.com/twodc/pre-view-sub000/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	interviewRepo := repositories.NewInterviewRepository(db)
	questionRepo := repositories.NewQuestionRepository(db)
	answerRepo := repositories.NewAnswerRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize AI agent
	recorder := metrics.NewRecorder()
	agent := services.NewAgentClient(cfg.Agent, recorder)
	log.Printf("✅ Agent client initialized in %q mode", cfg.Agent.Mode)

	// Initialize services
	orchestrator := services.NewQuestionOrchestrator(db, interviewRepo, questionRepo, answerRepo, agent)
	statusService := services.NewInterviewStatusService(interviewRepo)
	interviewService := services.NewInterviewService(db, interviewRepo, questionRepo, answerRepo, agent, orchestrator, statusService)
	answerService := services.NewAnswerService(db, interviewRepo, questionRepo, answerRepo, agent, orchestrator)
	log.Println("✅ Services initialized successfully")

	// Initialize handlers
	interviewHandler := handlers.NewInterviewHandler(interviewService)
	questionHandler := handlers.NewQuestionHandler(orchestrator)
	answerHandler := handlers.NewAnswerHandler(answerService)
	log.Println("✅ Handlers initialized")

	// Schedule the purge of soft-deleted interviews
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Cleanup.Schedule, func() {
		cutoff := time.Now().Add(-cfg.Cleanup.Retention)
		purged, err := interviewRepo.PurgeDeletedBefore(cutoff)
		if err != nil {
			log.Printf("❌ Purge job failed: %v", err)
			return
		}
		log.Printf("🧹 Purged %d interviews deleted before %s", purged, cutoff.Format(time.RFC3339))
	}); err != nil {
		log.Fatalf("❌ Failed to schedule purge job: %v", err)
	}
	scheduler.Start()
	log.Printf("✅ Purge job scheduled (%s)", cfg.Cleanup.Schedule)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Interview Orchestration API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Member-ID",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// API endpoints
	api.Post("/interviews", interviewHandler.HandleCreate)
	api.Get("/interviews", interviewHandler.HandleList)
	api.Get("/interviews/:id", interviewHandler.HandleGet)
	api.Post("/interviews/:id/start", interviewHandler.HandleStart)
	api.Delete("/interviews/:id", interviewHandler.HandleDelete)
	api.Patch("/interviews/:id/resume", interviewHandler.HandleUpdateResume)
	api.Patch("/interviews/:id/portfolio", interviewHandler.HandleUpdatePortfolio)
	api.Get("/interviews/:id/questions", questionHandler.HandleList)
	api.Post("/interviews/:id/questions/:questionId/answers", answerHandler.HandleSubmit)
	api.Get("/interviews/:id/result", interviewHandler.HandleGetResult)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Interview Orchestration API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/interviews",
				"GET /api/v1/interviews",
				"GET /api/v1/interviews/:id",
				"POST /api/v1/interviews/:id/start",
				"DELETE /api/v1/interviews/:id",
				"PATCH /api/v1/interviews/:id/resume",
				"PATCH /api/v1/interviews/:id/portfolio",
				"GET /api/v1/interviews/:id/questions",
				"POST /api/v1/interviews/:id/questions/:questionId/answers",
				"GET /api/v1/interviews/:id/result",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		scheduler.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
