package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/cjnlabay/midterm/internal/model"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt string     `json:"expires_at"`
	User      model.User `json:"user"`
}

// handleLogin exchanges email and password for a session token
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request"))
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, errorBody("email and password required"))
	}

	// Find user
	a, err := s.store.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		s.metrics.loginFailures.Inc()
		return c.JSON(http.StatusUnauthorized, errorBody("invalid credentials"))
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.loginFailures.Inc()
		return c.JSON(http.StatusUnauthorized, errorBody("invalid credentials"))
	}

	token, expiresAt, err := s.tokens.Issue(a.ID)
	if err != nil {
		logger.Error("Failed to sign token", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}

	logger.Info("User logged in", logger.F("user_id", a.ID))

	return c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		User:      a.User,
	})
}

// handleRegister creates an account. Unlike create it requires a password
// and needs no session.
func (s *Server) handleRegister(c echo.Context) error {
	return s.createAccount(c, true)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
