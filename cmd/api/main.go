package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/clinstudy/internal/activity"
	"github.com/abduss/clinstudy/internal/auth"
	"github.com/abduss/clinstudy/internal/comment"
	"github.com/abduss/clinstudy/internal/config"
	"github.com/abduss/clinstudy/internal/feasibility"
	"github.com/abduss/clinstudy/internal/logger"
	"github.com/abduss/clinstudy/internal/patient"
	"github.com/abduss/clinstudy/internal/ratelimit"
	"github.com/abduss/clinstudy/internal/server"
	"github.com/abduss/clinstudy/internal/storage"
	"github.com/abduss/clinstudy/internal/study"
	"github.com/abduss/clinstudy/internal/visit"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if cfg.Postgres.RunMigrations {
		if err := storage.Migrate(ctx, dbPool); err != nil {
			log.Fatal("apply migrations", zap.Error(err))
		}
	}

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatal("connect minio", zap.Error(err))
	}
	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO); err != nil {
		log.Fatal("ensure bucket", zap.Error(err))
	}

	tokenIssuer := auth.NewTokenIssuer(cfg.Auth)
	authService := auth.NewService(
		auth.NewRepository(dbPool),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokenIssuer,
		auth.NewDocumentStorage(minioClient, cfg.MinIO),
	)

	if cfg.Auth.BootstrapAdminEmail != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword)
		if err != nil {
			log.Fatal("bootstrap admin", zap.Error(err))
		}
		if created {
			log.Info("bootstrap admin created", zap.String("email", cfg.Auth.BootstrapAdminEmail))
		}
	}

	limiter := ratelimit.New(cfg.RateLimit)
	go limiter.Run(ctx)

	router := server.NewRouter(server.Dependencies{
		Config:             cfg,
		DB:                 dbPool,
		ObjectStore:        minioClient,
		AuthService:        authService,
		TokenIssuer:        tokenIssuer,
		Limiter:            limiter,
		StudyService:       study.NewService(study.NewRepository(dbPool)),
		PatientService:     patient.NewService(patient.NewRepository(dbPool)),
		VisitService:       visit.NewService(visit.NewRepository(dbPool)),
		ActivityService:    activity.NewService(activity.NewRepository(dbPool)),
		FeasibilityService: feasibility.NewService(feasibility.NewRepository(dbPool)),
		CommentService:     comment.NewService(comment.NewRepository(dbPool)),
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("clinstudy API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
