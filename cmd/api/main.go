package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dlrodev92/my-portfolio-api/internal/auth"
	"github.com/dlrodev92/my-portfolio-api/internal/blog"
	"github.com/dlrodev92/my-portfolio-api/internal/config"
	"github.com/dlrodev92/my-portfolio-api/internal/contact"
	"github.com/dlrodev92/my-portfolio-api/internal/db"
	"github.com/dlrodev92/my-portfolio-api/internal/middleware"
	"github.com/dlrodev92/my-portfolio-api/internal/notifications"
	"github.com/dlrodev92/my-portfolio-api/internal/projects"
	"github.com/dlrodev92/my-portfolio-api/internal/storage"
	"github.com/dlrodev92/my-portfolio-api/internal/transport"
	"github.com/dlrodev92/my-portfolio-api/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("postgres connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("postgres connected")
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema bootstrap failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var uploader storage.Uploader
	if cfg.S3Bucket != "" {
		s3Uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
		if err != nil {
			logger.Error("s3 setup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("s3 uploads enabled", slog.String("bucket", cfg.S3Bucket))
		uploader = s3Uploader
	} else {
		logger.Warn("S3_BUCKET not set, uploads disabled")
		uploader = storage.NewNoop()
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret: []byte(cfg.JWTSecret),
			TTL:    time.Duration(cfg.TokenTTLHours) * time.Hour,
			Issuer: "portfolio-api",
		}
	}

	var mailer contact.Mailer
	brevo := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.AdminEmail, cfg.BrevoSandbox)
	if brevo == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
		mailer = brevo
	}

	val := validation.New()

	blogRepo := blog.NewRepository(pool)
	blogService := blog.NewService(blogRepo, uploader)
	blogHandler := blog.NewHandler(blogService, val, logger, cfg.MaxUploadBytes)

	projectRepo := projects.NewRepository(pool)
	projectService := projects.NewService(projectRepo, uploader)
	projectHandler := projects.NewHandler(projectService, val, logger, cfg.MaxUploadBytes)

	authHandler := auth.NewHandler(jwtManager, cfg.AdminEmail, cfg.AdminPassword, logger)
	contactHandler := contact.NewHandler(mailer, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	contactLimiter := middleware.NewRateLimiter(cfg.RateLimitContact, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	adminOnly := middleware.AdminAuth(jwtManager)

	liveness := func(w http.ResponseWriter, _ *http.Request) {
		transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "portfolio-api"})
	}
	r.Get("/", liveness)
	r.Get("/api", liveness)

	r.Post("/login", authHandler.Login)
	r.With(contactLimiter.Middleware).Post("/contact", contactHandler.Submit)

	r.Route("/blog", func(api chi.Router) {
		api.Get("/", blogHandler.List)
		api.Get("/cards", blogHandler.Cards)
		api.Get("/slug/{slug}", blogHandler.GetBySlug)
		api.Get("/id/{id}", blogHandler.GetByID)

		api.Group(func(protected chi.Router) {
			protected.Use(adminOnly)
			protected.Post("/", blogHandler.Create)
			protected.Put("/{id}", blogHandler.Update)
			protected.Delete("/{id}", blogHandler.Delete)
		})
	})

	r.Route("/projects", func(api chi.Router) {
		api.Get("/", projectHandler.List)
		api.Get("/cards", projectHandler.Cards)
		api.Get("/slug/{slug}", projectHandler.GetBySlug)
		api.Get("/id/{id}", projectHandler.GetByID)

		api.Group(func(protected chi.Router) {
			protected.Use(adminOnly)
			protected.Post("/", projectHandler.Create)
			protected.Put("/{id}", projectHandler.Update)
			protected.Delete("/{id}", projectHandler.Delete)
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
