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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	_ "github.com/lib/pq"

	"clubcalendar/config"
	_ "clubcalendar/docs"
	"clubcalendar/internal/adapters/auth"
	"clubcalendar/internal/adapters/email"
	httpdelivery "clubcalendar/internal/delivery/http"
	"clubcalendar/internal/delivery/http/controllers"
	"clubcalendar/internal/delivery/http/middleware"
	"clubcalendar/internal/domain"
	"clubcalendar/internal/repository/dynamo"
	"clubcalendar/internal/repository/postgres"
	"clubcalendar/internal/services"
)

// @title Club Calendar API
// @version 1.0
// @description Event scheduling, invitations, and RSVPs for the club.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)

	awsCfg := aws.Config{
		Region: cfg.AWSRegion,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		),
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	eventRepo := dynamo.NewEventRepository(dynamoClient, cfg.EventsTable)
	invitationRepo := dynamo.NewInvitationRepository(dynamoClient, cfg.InvitationsTable)
	rsvpRepo := dynamo.NewRSVPRepository(dynamoClient, cfg.RSVPsTable)
	userRepo := dynamo.NewUserRepository(dynamoClient, cfg.UsersTable)
	studentRepo := dynamo.NewStudentRepository(dynamoClient, cfg.StudentsTable)

	// The legacy SQL calendar is optional; the feed falls back to it only
	// when configured and the event tables are empty.
	var legacyRepo domain.LegacyCalendarRepository
	if cfg.LegacyDBUrl != "" {
		db, err := sql.Open("postgres", cfg.LegacyDBUrl)
		if err != nil {
			log.Fatalf("open legacy db: %v", err)
		}
		defer db.Close()
		legacyRepo = postgres.NewLegacyCalendarRepository(db)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.FromEmail,
		FromName:    cfg.FromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		},
	})
	if err != nil {
		log.Fatalf("create mailer: %v", err)
	}
	renderer := email.NewTemplateRenderer()

	hasher := auth.NewBcryptHasher(12)
	tokens := auth.NewJWTManager(cfg.JWTSecret)

	notifier := services.NewNotificationService(mailer, renderer, userRepo, logger, services.NotificationConfig{
		Enabled:          cfg.EnableEmail,
		BaseURL:          cfg.BaseURL,
		OrganizationName: cfg.OrganizationName,
		FromEmail:        cfg.FromEmail,
		SupportEmail:     cfg.SupportEmail,
		MaxRecipients:    cfg.MaxRecipients,
		BatchDelay:       cfg.EmailBatchDelay,
	})

	const serviceTimeout = 30 * time.Second
	calendarService := services.NewCalendarService(eventRepo, invitationRepo, rsvpRepo, notifier, logger, serviceTimeout)
	inviteService := services.NewInviteService(eventRepo, invitationRepo, rsvpRepo, userRepo, studentRepo, notifier, logger, serviceTimeout)
	userService := services.NewUserService(userRepo, hasher, tokens, cfg.TokenExpiry, logger, serviceTimeout)

	calendarController := controllers.NewCalendarController(logger, calendarService, legacyRepo)
	inviteController := controllers.NewInviteController(logger, inviteService)
	authController := controllers.NewAuthController(logger, userService)

	mux := httpdelivery.NewRouter(calendarController, inviteController, authController, tokens, userRepo, logger)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
