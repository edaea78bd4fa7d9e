package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapfeed-backend/internal/config"
	"snapfeed-backend/internal/handlers"
	"snapfeed-backend/internal/middleware"
	"snapfeed-backend/internal/services"
	"snapfeed-backend/internal/session"
	"snapfeed-backend/internal/storage"
	"snapfeed-backend/internal/store"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Apply schema migrations
	if err := store.Migrate(cfg.Database.URL()); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize stores
	userStore := store.NewUserStore(db)
	postStore := store.NewPostStore(db)
	commentStore := store.NewCommentStore(db)

	imageStore, err := storage.NewImageStore(
		context.Background(),
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create image store")
	}

	// Initialize services
	userService := services.NewUserService(userStore)
	hub := services.NewEngagementHub()
	postService := services.NewPostService(postStore, commentStore, imageStore, hub)
	codec := session.NewCodec(cfg.JWT.Secret, userStore, cfg.JWT.TTLDays)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, codec, cfg.Session.CookieName, cfg.Session.Secure)
	postHandler := handlers.NewPostHandler(postService)
	eventsHandler := handlers.NewEventsHandler(hub, codec)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(middleware.WithIdentity(codec, cfg.Session.CookieName))

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Guest-only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireGuest)
			r.Post("/auth/signup", authHandler.Signup)
			r.Post("/auth/login", authHandler.Login)
		})

		// Public routes
		r.Get("/feed", postHandler.Feed)
		r.Get("/posts/{post_id}", postHandler.GetPost)
		r.Get("/posts/{post_id}/comments", postHandler.ListComments)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Get("/profile", postHandler.Profile)
			r.Post("/posts", postHandler.CreatePost)
			r.Delete("/posts/{post_id}", postHandler.DeletePost)
			r.Post("/posts/{post_id}/like", postHandler.Like)
			r.Post("/posts/{post_id}/comments", postHandler.AddComment)
		})
	})

	// Engagement event stream
	r.Get("/ws", eventsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
