package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/api/handlers"
	"github.com/maheshrc27/postflow/internal/api/middleware"
	job "github.com/maheshrc27/postflow/internal/jobs"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/pkg/utils"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	if len(os.Args) > 1 && os.Args[1] == "encrypt" {
		encryptSecret(cfg, os.Args[2:])
		return
	}

	slog.SetDefault(utils.NewLogger(cfg.Log))

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	postRepo := repository.NewPostRepository(db)
	if err := postRepo.EnsureSchema(context.Background()); err != nil {
		slog.Warn("schema not ready, retrying on first use", "error", err)
	}

	var (
		asynqClient *asynq.Client
		asynqServer *asynq.Server
		enqueuer    service.PublishEnqueuer
	)
	if cfg.RedisURI != "" {
		redisConn, err := redisConnOpt(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}
		asynqClient = asynq.NewClient(redisConn)
		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 1,
		})
		enqueuer = queue.NewEnqueuer(asynqClient)
	} else {
		slog.Info("REDIS_URI not set, relying on cron only")
	}

	profileService, err := service.NewProfileService(*cfg)
	if err != nil {
		log.Fatalf("Failed to load Meta profiles: %v", err)
	}
	graph := service.NewGraphClient(cfg.Graph, nil)
	facebookService := service.NewFacebookService(graph)
	instagramService := service.NewInstagramService(graph)
	schedulerService := service.NewSchedulerService(postRepo, profileService, facebookService, instagramService, enqueuer, cfg.PublishClaimTimeout)
	postService := service.NewPostService(postRepo, enqueuer)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("request error", "path", c.Path(), "error", err)
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	validate := validator.New()
	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	app.Get("/api/health", handlers.Health)

	auth := handlers.NewAuthHandler(*cfg, validate)
	app.Post("/auth/token", auth.IssueToken)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, schedulerService, validate)
	posts := api.Group("/posts", middleware.SchemaMiddleware(postRepo))
	posts.Get("/", post.ListPosts)
	posts.Post("/", post.CreatePost)
	posts.Get("/:id", post.GetPost)
	posts.Put("/:id", post.UpdatePost)
	posts.Delete("/:id", post.RemovePost)
	posts.Post("/:id/schedule", post.SchedulePost)
	posts.Post("/:id/publish", post.PublishPost)
	posts.Post("/:id/retry", post.RetryPost)
	posts.Post("/:id/cancel", post.CancelPost)

	if cfg.R2.AccountID != "" {
		r2Client, err := service.NewR2Client(context.Background(), cfg.R2)
		if err != nil {
			log.Fatalf("Failed to configure R2: %v", err)
		}
		media := handlers.NewMediaHandler(service.NewMediaService(r2Client, *cfg))
		api.Post("/media", media.UploadMedia)
		app.Get("/media/:key", media.ServeMedia)
	} else {
		slog.Info("R2 not configured, media upload disabled")
	}

	// cron jobs
	publishJob := job.NewPublishJob(postRepo, schedulerService, cfg.PublishClaimTimeout)

	c := cron.New()
	if err := c.AddFunc(cfg.CronSchedule, publishJob.PublishDuePosts); err != nil {
		log.Fatalf("Invalid CRON_SCHEDULE %q: %v", cfg.CronSchedule, err)
	}
	c.Start()

	//queue
	if asynqServer != nil {
		queueW := queue.NewQueue(schedulerService)
		go func() {
			mux := asynq.NewServeMux()
			queueW.Register(mux)

			slog.Info("Starting the Asynq server...")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("Server is running", "port", cfg.Port)

	gracefulShutdown(app, c, asynqServer, asynqClient, db)
}

// redisConnOpt accepts either a redis:// URI or a plain host:port address.
func redisConnOpt(uri string) (asynq.RedisConnOpt, error) {
	if strings.Contains(uri, "://") {
		return asynq.ParseRedisURI(uri)
	}
	return asynq.RedisClientOpt{Addr: uri}, nil
}

func encryptSecret(cfg *config.Config, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: server encrypt <value>")
		os.Exit(2)
	}

	sealed, err := utils.EncryptSecret(args[0], cfg.SecretKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encrypt value: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, sealed)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, server *asynq.Server, client *asynq.Client, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	c.Stop()
	if server != nil {
		server.Shutdown()
	}
	if client != nil {
		client.Close()
	}

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	slog.Info("Server shutdown complete.")
}
