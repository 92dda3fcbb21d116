package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leadflow/leadflow/internal/config"
	"github.com/leadflow/leadflow/internal/db"
	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/lifecycle"
	"github.com/leadflow/leadflow/internal/middleware"
	"github.com/leadflow/leadflow/internal/repository"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/storage"
)

type App struct {
	Cfg                *config.Config
	DB                 *sqlx.DB
	Hub                *events.Hub
	AuthService        *service.AuthService
	UserService        *service.UserService
	ProfileService     *service.ProfileService
	EmailService       *service.EmailService
	FileService        *service.FileService
	LeadService        *service.LeadService
	InteractionService *service.InteractionService
	ProposalService    *service.ProposalService
	TaskService        *service.TaskService
	FormTokenService   *service.FormTokenService
	IntakeService      *service.IntakeService
	DigestService      *service.DigestService
	IntakeLimiter      *middleware.RateLimiter
	AuthLimiter        *middleware.RateLimiter

	amqp *events.AMQPPublisher
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	fileRepository := repository.NewFileRepository(database)
	leadRepository := repository.NewLeadRepository(database)
	interactionRepository := repository.NewInteractionRepository(database)
	proposalRepository := repository.NewProposalRepository(database)
	taskRepository := repository.NewTaskRepository(database)
	formTokenRepository := repository.NewFormTokenRepository(database)

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Change events: browsers through the hub, other systems through the broker
	hub := events.NewHub()
	publisher := events.Fanout{hub}
	var amqpPublisher *events.AMQPPublisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err = events.DialAMQP(cfg.AMQPURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to broker: %w", err)
		}
		publisher = append(publisher, amqpPublisher)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileRepository, fileStorage)
	authService := service.NewAuthService(
		userRepository,
		profileRepository,
		tokenRepository,
		emailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
		cfg.TokenEmailVerifyExpiry,
		cfg.TokenMagicLinkExpiry,
	)
	userService := service.NewUserService(userRepository, profileRepository, fileService, emailService)
	profileService := service.NewProfileService(profileRepository)
	leadService := service.NewLeadService(leadRepository, publisher)
	interactionService := service.NewInteractionService(leadRepository, interactionRepository, publisher)
	proposalService := service.NewProposalService(leadRepository, proposalRepository, fileService, publisher)
	taskService := service.NewTaskService(
		leadRepository,
		taskRepository,
		lifecycle.Rules{IncludeTerminalFollowUps: cfg.FollowUpIncludeTerminal},
		publisher,
	)
	formTokenService := service.NewFormTokenService(formTokenRepository)
	intakeService := service.NewIntakeService(formTokenRepository, leadRepository, publisher)
	digestService := service.NewDigestService(userRepository, profileRepository, taskService, emailService, cfg.Now)

	var intakeLimiter *middleware.RateLimiter
	if cfg.IntakeRateLimit > 0 {
		intakeLimiter = middleware.NewRateLimiter(cfg.IntakeRateLimit, time.Minute)
	}

	// Login, signup and email-sending actions
	authLimiter := middleware.NewRateLimiter(5, 15*time.Minute)

	return &App{
		Cfg:                cfg,
		DB:                 database,
		Hub:                hub,
		AuthService:        authService,
		UserService:        userService,
		ProfileService:     profileService,
		EmailService:       emailService,
		FileService:        fileService,
		LeadService:        leadService,
		InteractionService: interactionService,
		ProposalService:    proposalService,
		TaskService:        taskService,
		FormTokenService:   formTokenService,
		IntakeService:      intakeService,
		DigestService:      digestService,
		IntakeLimiter:      intakeLimiter,
		AuthLimiter:        authLimiter,
		amqp:               amqpPublisher,
	}, nil
}

func (a *App) Close() error {
	var errs []error

	if a.IntakeLimiter != nil {
		a.IntakeLimiter.Stop()
	}
	if a.AuthLimiter != nil {
		a.AuthLimiter.Stop()
	}
	if a.amqp != nil {
		err := a.amqp.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to close broker connection: %w", err))
		}
	}
	if a.DB != nil {
		err := a.DB.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) == 0 {
		slog.Info("app closed")
	}
	return errors.Join(errs...)
}
