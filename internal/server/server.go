package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/taskhive/apiserver/config"
	"github.com/taskhive/apiserver/internal/db"
	"github.com/taskhive/apiserver/internal/handlers"
	"github.com/taskhive/apiserver/internal/mq"
	"github.com/taskhive/apiserver/internal/services"
	"github.com/taskhive/apiserver/internal/store"
)

// Server wraps the HTTP server and router for one of the two services.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
	log        *logrus.Logger
}

// NewIdentity constructs the identity service: registration and login.
func NewIdentity(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret, err := requireJWTSecret(cfg)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	userService := services.NewUserService(userRepo)

	router := newRouter()
	handlers.AuthRouter(router, userService, jwtSecret, cfg.TokenTTL)

	srv := newServer(router, dbConn, cfg.IdentityPort, 3001)
	srv.log.WithField("addr", srv.httpServer.Addr).Info("identity service listening")
	return srv, nil
}

// NewTasks constructs the task service: ownership-scoped task CRUD behind
// bearer authentication. The identity service is never consulted at request
// time; the shared JWT secret is the entire trust boundary.
func NewTasks(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret, err := requireJWTSecret(cfg)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	events, err := mq.NewFromConfig(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("connect events backend: %w", err)
	}

	taskRepo := store.NewTaskRepository(dbConn)
	taskService := services.NewTaskService(taskRepo)
	if events != nil {
		taskService = taskService.WithEvents(events, cfg.Events.Channel)
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := newRouter()
	router.Route("/tasks", func(r chi.Router) {
		handlers.TaskRouter(r, taskService, authMiddleware)
	})

	srv := newServer(router, dbConn, cfg.TasksPort, 3002)
	srv.events = events
	srv.log.WithField("addr", srv.httpServer.Addr).Info("task service listening")
	return srv, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newRouter() *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	return router
}

func newServer(router *chi.Mux, dbConn *sql.DB, port, defaultPort int) *Server {
	if port == 0 {
		port = defaultPort
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		log:        logrus.StandardLogger(),
	}
}

func requireJWTSecret(cfg config.Config) (string, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return "", errors.New("JWT_SECRET is required")
	}
	return secret, nil
}
