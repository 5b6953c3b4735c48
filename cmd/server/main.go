package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/adsync/configs"
	"github.com/maheshrc27/adsync/internal/api/handlers"
	job "github.com/maheshrc27/adsync/internal/jobs"
	"github.com/maheshrc27/adsync/internal/queue"
	"github.com/maheshrc27/adsync/internal/repository"
	"github.com/maheshrc27/adsync/internal/service"
	"github.com/maheshrc27/adsync/internal/transfer"
	"github.com/robfig/cron"
	"golang.org/x/oauth2"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if cfg.HasPlaceholderCredentials() {
		slog.Warn("TikTok credentials are placeholders; remote calls will be rejected",
			"advertiser_id", cfg.Tiktok.AdvertiserID)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = repository.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	campaignRepo := repository.NewCampaignRepository(db)
	creativeRepo := repository.NewCreativeRepository(db)
	syncHistoryRepo := repository.NewSyncHistoryRepository(db)

	account := transfer.AccountContext{
		AdvertiserID: cfg.Tiktok.AdvertiserID,
		Credential:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Tiktok.AccessToken}),
	}

	var archive service.CreativeArchive
	if cfg.R2.Enabled() {
		archive = service.NewR2Service(*cfg)
	}

	tiktokService := service.NewTiktokService(*cfg, nil)
	campaignService := service.NewCampaignService(account, tiktokService, campaignRepo, creativeRepo, syncHistoryRepo, archive)

	campaigns := handlers.NewCampaignHandler(campaignService, client)
	marketing := app.Group("/api/marketing")
	marketing.Post("/create_campaign", campaigns.CreateCampaign)
	marketing.Post("/upload_creative", campaigns.UploadCreative)
	marketing.Post("/set_targeting", campaigns.SetTargeting)
	marketing.Post("/schedule_campaign", campaigns.ScheduleCampaign)
	marketing.Get("/report", campaigns.CampaignReport)
	marketing.Get("/campaigns/:id", campaigns.CampaignInfo)
	marketing.Get("/campaigns/:id/history", campaigns.CampaignHistory)

	// cron jobs
	reconcileJob := job.NewCampaignReconcileJob(campaignRepo, campaignService, cfg.ReconcileConcurrency)

	c := cron.New()
	if err := c.AddFunc(cfg.ReconcileSchedule, reconcileJob.Run); err != nil {
		log.Fatalf("Invalid reconcile schedule %q: %v", cfg.ReconcileSchedule, err)
	}
	c.Start()
	defer c.Stop()

	//queue
	queueW := queue.NewQueue(campaignService)

	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})
	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeCampaignStatus, queueW.HandleCampaignStatusTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, server)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	server.Shutdown()

	log.Println("Server shutdown complete.")
}
