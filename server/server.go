package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the backend settings
type Config struct {
	Port        string
	DatabaseURL string // "memory" keeps records in process memory
	JWTSecret   string
	TokenTTL    time.Duration
}

// ConfigFromEnv reads PORT, DATABASE_URL, JWT_SECRET and TOKEN_TTL
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "3000"),
		DatabaseURL: getEnv("DATABASE_URL", "memory"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    24 * time.Hour,
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", v)
		}
		cfg.TokenTTL = ttl
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// OpenStore picks the store named by the database URL
func OpenStore(ctx context.Context, dbURL string) (Store, error) {
	if dbURL == "" || dbURL == "memory" {
		logger.Info("Using in-memory store")
		return NewMemoryStore(), nil
	}
	logger.Info("Connecting to PostgreSQL")
	return OpenPostgres(ctx, dbURL)
}

// Server is the user records backend
type Server struct {
	store   Store
	tokens  *TokenIssuer
	metrics *metrics
	echo    *echo.Echo
}

// New creates a server on top of store
func New(store Store, cfg Config) *Server {
	s := &Server{
		store:   store,
		tokens:  NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL),
		metrics: newMetrics(),
	}

	// Setup Echo
	s.setupEcho()

	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	// Custom logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			// Process request
			err := next(c)

			// Log response
			res := c.Response()
			logger.Info("HTTP Response",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
				logger.F("duration", time.Since(start).String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORS())
	e.Use(s.metrics.middleware)

	// Health check
	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(s.metrics.handler()))

	api := e.Group("/api")

	// Public endpoints
	api.POST("/auth/login", s.handleLogin)
	api.POST("/products/register", s.handleRegister)

	// Protected endpoints
	protected := api.Group("/products", s.authMiddleware)
	protected.GET("", s.handleListUsers)
	protected.POST("", s.handleCreateUser)
	protected.GET("/:id", s.handleGetUser)
	protected.PUT("/:id", s.handleUpdateUser)
	protected.DELETE("/:id", s.handleDeleteUser)

	s.echo = e
}

// handleError renders every error as {"error": message}
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		logger.Error("Unhandled error", logger.F("path", c.Path()), logger.F("error", err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorBody(msg))
	}
	if err != nil {
		logger.Warn("Failed to write error response", logger.F("error", err))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// Close closes the store
func (s *Server) Close() error {
	return s.store.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for running ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
