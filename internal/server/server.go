package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/salimtrading/staffportal/config"
	"github.com/salimtrading/staffportal/internal/credential"
	"github.com/salimtrading/staffportal/internal/db"
	"github.com/salimtrading/staffportal/internal/handlers"
	"github.com/salimtrading/staffportal/internal/mail"
	"github.com/salimtrading/staffportal/internal/mq"
	"github.com/salimtrading/staffportal/internal/redemption"
	"github.com/salimtrading/staffportal/internal/services"
	"github.com/salimtrading/staffportal/internal/session"
	"github.com/salimtrading/staffportal/internal/storage"
	"github.com/salimtrading/staffportal/internal/store"
	"github.com/salimtrading/staffportal/internal/token"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	closers    []io.Closer
	log        *zap.Logger
}

// New connects every backing service, seeds the administrator and builds
// the router.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (_ *Server, err error) {
	s := &Server{log: log}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	s.db, err = db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ledger, err := s.openLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if objects != nil {
		s.closers = append(s.closers, objects)
		log.Info("object storage enabled", zap.String("backend", cfg.Storage.Backend), zap.String("bucket", objects.Bucket()))
	}

	var broker *mq.MQ
	if cfg.Mail.Delivery == "queue" {
		broker, err = mq.Open(ctx, cfg.MQ)
		if err != nil {
			return nil, fmt.Errorf("open message queue: %w", err)
		}
		s.closers = append(s.closers, broker)
	}

	mailer, err := mail.NewSender(cfg.Mail, broker, objects, log)
	if err != nil {
		return nil, fmt.Errorf("mail sender: %w", err)
	}

	tokens, err := token.NewService(cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewManager(cfg.SecretKey, session.Options{TTL: cfg.SessionTTL, Secure: cfg.CookieSecure})
	if err != nil {
		return nil, err
	}

	hasher := credential.NewHasher(cfg.BcryptCost)
	employeeRepo := store.NewEmployeeRepository(s.db)

	employeeService := services.NewEmployeeService(employeeRepo, hasher, log)
	authService := services.NewAuthService(employeeRepo, hasher)
	workflowService := services.NewWorkflowService(
		employeeRepo, hasher, tokens, ledger, mailer,
		services.WorkflowConfig{OrgName: cfg.OrgName, Sender: cfg.MailSender(), TokenMaxAge: cfg.TokenMaxAge},
		log,
	)

	if err := employeeService.EnsureAdminSeed(ctx, services.AdminSeed{Email: cfg.Admin.Email, Password: cfg.Admin.Password}); err != nil {
		return nil, err
	}

	web, err := handlers.NewWebHandler(handlers.Dependencies{
		Sessions:      sessions,
		Auth:          authService,
		Employees:     employeeService,
		Workflow:      workflowService,
		Storage:       objects,
		OrgName:       cfg.OrgName,
		PublicBaseURL: cfg.PublicBaseURL,
		Log:           log,
	})
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.WebRouter(router, web)

	port := cfg.ServerPort
	if port == 0 {
		port = 5000
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// openLedger prefers Redis when configured and otherwise keeps
// redemptions in PostgreSQL, purging expired rows first.
func (s *Server) openLedger(ctx context.Context, cfg config.Config) (*redemption.Ledger, error) {
	if cfg.Redis.Addr != "" {
		backend, err := redemption.NewRedisBackend(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.closers = append(s.closers, backend)
		s.log.Info("redemption ledger", zap.String("backend", "redis"))
		return redemption.New(backend), nil
	}

	backend := redemption.NewPostgresBackend(s.db)
	purged, err := backend.Purge(ctx)
	if err != nil {
		s.log.Warn("purge expired redemptions", zap.Error(err))
	} else if purged > 0 {
		s.log.Info("purged expired redemptions", zap.Int64("rows", purged))
	}
	s.log.Info("redemption ledger", zap.String("backend", "postgres"))
	return redemption.New(backend), nil
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the backing services.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.log.Warn("close", zap.Error(err))
		}
	}
	s.closers = nil
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}
