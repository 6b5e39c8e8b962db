package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/api/handlers"
	"github.com/maheshrc27/postflow/internal/api/middleware"
	job "github.com/maheshrc27/postflow/internal/jobs"
	"github.com/maheshrc27/postflow/internal/lock"
	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/platform"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := config.LoadConfig()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		fatal("database is unreachable", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	attemptRepo := repository.NewPublishAttemptRepository(db)

	threads := platform.NewThreadsPublisher(cfg.Threads, cfg.PlatformHTTPTimeout)
	registry, err := platform.NewRegistry(
		threads,
		platform.NewTwitterPublisher(cfg.Twitter, cfg.PlatformHTTPTimeout),
		platform.NewLinkedInPublisher(cfg.LinkedIn, cfg.PlatformHTTPTimeout),
	)
	if err != nil {
		fatal("failed to build publisher registry", err)
	}
	slog.Info("publishers registered", "platforms", registry.Platforms())

	accountService := service.NewAccountService(*cfg, socialAccountRepo)
	publishService := service.NewPublishService(postRepo, attemptRepo, accountService, registry,
		lock.NewRedisLocker(rdb), m, service.PublishServiceConfig{
			LockTTL:            cfg.PublishTimeout + time.Minute,
			DefaultWorkspaceID: cfg.DefaultWorkspaceID,
		})
	queueClient := queue.NewClient(client, cfg.PublishTimeout)
	dispatchService := service.NewDispatchService(postRepo, queueClient, m, cfg.ReconcileGrace)
	engagementService := service.NewEngagementService(accountService, registry)
	tokenService := service.NewTokenService(*cfg, socialAccountRepo, threads)

	// queue worker
	queueW := queue.NewQueue(publishService, m)
	server := queue.NewServer(redisConn, cfg.WorkerConcurrency)
	slog.Info("starting the asynq server", "concurrency", cfg.WorkerConcurrency)
	if err := server.Start(queueW.NewServeMux()); err != nil {
		fatal("could not start asynq server", err)
	}

	// cron jobs
	cronManager := job.NewCronManager(
		job.Schedules{
			Dispatch:     cfg.DispatchSchedule,
			Reconcile:    cfg.ReconcileSchedule,
			TokenRefresh: cfg.TokenRefreshSchedule,
		},
		job.NewDispatchJob(dispatchService, time.Minute),
		job.NewReconcileJob(dispatchService, time.Minute),
		job.NewTokenRefreshJob(socialAccountRepo, tokenService, m),
	)
	if err := cronManager.RegisterJobs(); err != nil {
		fatal("invalid cron schedule", err)
	}
	cronManager.Start()

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.PublishTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("request failed", "path", c.Path(), "error", err)
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/healthz", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	dispatch := handlers.NewDispatchHandler(dispatchService, cfg.DispatchToken)
	internal := app.Group("/internal", dispatch.RequireToken())
	internal.Post("/dispatch", dispatch.Dispatch)
	internal.Post("/reconcile", dispatch.Reconcile)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)
	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(publishService)
	api.Get("/posts/:id", post.GetPost)
	api.Post("/posts/:id/publish", post.PublishPost)
	api.Delete("/posts/:id/platforms/:platform", post.UnpublishPlatform)

	engagement := handlers.NewEngagementHandler(engagementService)
	api.Get("/engagement/:platform", engagement.GetEngagement)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			fatal("failed to start server", err)
		}
	}()
	slog.Info("server is running", "port", cfg.Port)

	gracefulShutdown(app, server, cronManager)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

// gracefulShutdown stops intake first (HTTP, cron) and then lets in-flight
// publish tasks finish before the deferred connections close.
func gracefulShutdown(app *fiber.App, server *asynq.Server, cronManager *job.Manager) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}

	cronManager.Stop()
	server.Shutdown()
	slog.Info("server shutdown complete")
}
