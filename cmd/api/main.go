package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sarthi-labs/hireflow-api/internal/config"
	"github.com/sarthi-labs/hireflow-api/internal/database"
	"github.com/sarthi-labs/hireflow-api/internal/handler"
	"github.com/sarthi-labs/hireflow-api/internal/middleware"
	"github.com/sarthi-labs/hireflow-api/internal/models"
	"github.com/sarthi-labs/hireflow-api/internal/repository"
	"github.com/sarthi-labs/hireflow-api/internal/router"
	"github.com/sarthi-labs/hireflow-api/internal/service"
	"github.com/sarthi-labs/hireflow-api/pkg/ai"
	dockerexec "github.com/sarthi-labs/hireflow-api/pkg/docker"
	"github.com/sarthi-labs/hireflow-api/pkg/judge"
	"github.com/sarthi-labs/hireflow-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Drive{},
		&models.DriveRound{},
		&models.DriveCandidate{},
		&models.CandidateRound{},
		&models.CodingQuestion{},
		&models.Submission{},
		&models.QuestionSubmission{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	judgeClient, err := buildJudgeClient(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build judge client: %v", err)
	}

	var resumes storage.ResumeUploader
	if cfg.CloudinaryCloudName != "" {
		resumes, err = storage.NewCloudinaryUploader(storage.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create resume uploader: %v", err)
		}
	}

	scorer, err := buildShortlistScorer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build shortlist scorer: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	driveRepo := repository.NewDriveRepository(db)
	candidateRepo := repository.NewDriveCandidateRepository(db)
	questionRepo := repository.NewCodingQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	projector := service.NewCandidateRoundProjector(candidateRepo, logger)
	dispatcher := service.NewInviteDispatcher(candidateRepo, service.NewLogInviteSender(logger), natsConn, logger, service.DispatchConfig{
		Subject:     cfg.DispatchSubject,
		MaxAttempts: cfg.DispatchMaxAttempts,
		Backoff:     cfg.DispatchBackoff,
	})
	statistics := service.NewStatisticsAggregator(submissionRepo, redisClient, logger)

	driveService := service.NewDriveService(driveRepo, candidateRepo, questionRepo, resumes, validate, logger)
	stateService := service.NewDriveStateService(driveRepo, candidateRepo, projector, dispatcher, scorer, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, driveRepo, questionRepo, statistics, redisClient, validate, logger, service.SubmissionConfig{
		StatisticsCacheTTL: cfg.StatisticsCacheTTL,
	})
	gradingService := service.NewGradingService(submissionRepo, questionRepo, judgeClient, statistics, validate, logger, service.GradingConfig{
		MaxConcurrency: cfg.GradingMaxConcurrency,
	})

	driveHandler := handler.NewDriveHandler(driveService, stateService, validate, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, gradingService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		DriveHandler:      driveHandler,
		SubmissionHandler: submissionHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher.Start(workerCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopWorkers)
}

func buildJudgeClient(cfg config.Config, logger zerolog.Logger) (judge.Client, error) {
	if cfg.JudgeBackend == config.JudgeBackendDocker {
		sandbox, err := dockerexec.NewSandbox(dockerexec.Config{
			Host:          cfg.DockerHost,
			Timeout:       cfg.ExecutionTimeout,
			MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
			CPUShares:     int64(cfg.CodeRunCPUShares),
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		return judge.NewLocalJudge(sandbox, judge.LocalConfig{
			Timeout:       cfg.ExecutionTimeout,
			MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
			CPUShares:     int64(cfg.CodeRunCPUShares),
			Logger:        logger,
		}), nil
	}

	client, err := judge.NewJudge0Client(judge.Judge0Config{
		BaseURL:      cfg.JudgeBaseURL,
		AuthToken:    cfg.JudgeAuthToken,
		Timeout:      cfg.JudgeTimeout,
		PollInterval: cfg.JudgePollInterval,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildShortlistScorer(cfg config.Config, logger zerolog.Logger) (ai.ShortlistScorer, error) {
	if cfg.ShortlistProvider == "openai" && cfg.OpenAIAPIKey != "" {
		scorer, err := ai.NewOpenAIScorer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return scorer, nil
	}

	return ai.NewKeywordScorer(cfg.ShortlistThreshold), nil
}

func waitForShutdown(app *fiber.App, stopWorkers context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
