package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/accounthub/apiserver/config"
	"github.com/accounthub/apiserver/internal/cache"
	"github.com/accounthub/apiserver/internal/db"
	"github.com/accounthub/apiserver/internal/events"
	"github.com/accounthub/apiserver/internal/handlers"
	"github.com/accounthub/apiserver/internal/mq"
	"github.com/accounthub/apiserver/internal/services"
	"github.com/accounthub/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and its owned resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	logger     *zap.Logger
}

// New constructs a Server: opens the database pool, wires the optional
// broker and cache, and registers the account routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	broker := newBroker(ctx, cfg.MQ, logger)
	publisher := events.NewPublisher(broker, logger)

	redisClient := config.NewRedisClient()
	if redisClient == nil {
		logger.Info("redis not configured, directory cache disabled")
	}
	listCache := cache.NewUserListCache(redisClient, cfg.CacheTTL)

	userRepo := store.NewUserRepository(dbConn)
	accountService := services.NewAccountService(userRepo, publisher, listCache, cfg.BcryptCost, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(logger),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		handlers.UserRouter(r, accountService, logger)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
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
		broker:     broker,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown releases owned resources and stops the HTTP server.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	_ = s.logger.Sync()
	return s.httpServer.Close()
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("ENV") == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newBroker selects the event transport. A broker that fails to connect at
// startup disables event publishing instead of failing the server.
func newBroker(ctx context.Context, cfg config.MQConfig, logger *zap.Logger) *mq.MQ {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			logger.Warn("rabbitmq unavailable, account events disabled", zap.Error(err))
			return nil
		}
		return mq.New(client)
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			logger.Warn("pubsub unavailable, account events disabled", zap.Error(err))
			return nil
		}
		return mq.New(client)
	default:
		logger.Warn("unknown mq backend, account events disabled", zap.String("backend", cfg.Backend))
		return nil
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
