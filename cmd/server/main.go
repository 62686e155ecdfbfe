package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/alumnet/alumnet-api/internal/admin"
	"github.com/alumnet/alumnet-api/internal/codes"
	"github.com/alumnet/alumnet-api/internal/config"
	"github.com/alumnet/alumnet-api/internal/handlers"
	"github.com/alumnet/alumnet-api/internal/middleware"
	"github.com/alumnet/alumnet-api/internal/migration"
	"github.com/alumnet/alumnet-api/internal/notification"
	"github.com/alumnet/alumnet-api/internal/registration"
	"github.com/alumnet/alumnet-api/internal/repository"
	"github.com/alumnet/alumnet-api/internal/routes"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config        *config.Config
	db            *sql.DB
	logger        zerolog.Logger
	notifications notification.Service
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Initialize notification service. The SMTP pieces are optional; without
	// them decisions still land in the admin feed, they just don't mail out.
	notificationRepo := repository.NewNotificationRepository(db)
	// The variable is the interface type on purpose: assigning a nil
	// *SMTPMailer here would make the interface non-nil downstream.
	var mailer notification.Mailer
	if smtpMailer, err := notification.NewSMTPMailer(cfg.Email); err != nil {
		logger.Warn().Err(err).Msg("SMTP mailer not configured, emails disabled")
	} else {
		mailer = smtpMailer
	}
	var emailNotifier notification.Notifier
	if notifier, err := notification.NewEmailNotifier(cfg.Email, logger); err != nil {
		logger.Warn().Err(err).Msg("Email notifier not configured, admin emails disabled")
	} else {
		emailNotifier = notifier
	}
	notificationService := notification.NewService(notificationRepo, mailer, logger, emailNotifier)

	// Create the application instance.
	app := &application{
		config:        cfg,
		db:            db,
		logger:        logger,
		notifications: notificationService,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	userRepo := repository.NewUserRepository(app.db)
	codeRepo := repository.NewCodeRepository(app.db)
	requestRepo := repository.NewAccessRequestRepository(app.db)
	schoolRepo := repository.NewSchoolRepository(app.db)

	// Services
	codeService := codes.NewService(userRepo, codeRepo, logger)
	registrationService := registration.NewService(userRepo, codeRepo, requestRepo, schoolRepo, app.notifications, logger)
	adminService := admin.NewService(userRepo, codeRepo, requestRepo, app.notifications, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, app.config.JWTSecret, logger)
	registrationHandler := handlers.NewRegistrationHandler(registrationService, codeService, logger)
	codesHandler := handlers.NewCodesHandler(codeService, logger)
	schoolsHandler := handlers.NewSchoolsHandler(schoolRepo, logger)
	adminHandler := handlers.NewAdminHandler(adminService, codeService, app.notifications, logger)

	return routes.NewRouter(authHandler, registrationHandler, codesHandler, schoolsHandler, adminHandler)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
