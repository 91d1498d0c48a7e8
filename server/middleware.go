package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// authMiddleware checks the session token. Both "Authorization: <token>"
// and "Authorization: Bearer <token>" are accepted.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
		if auth == "" {
			return c.JSON(http.StatusUnauthorized, errorBody("authorization required"))
		}

		token := auth
		if scheme, rest, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			token = strings.TrimSpace(rest)
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorBody("invalid token"))
		}

		// Add user ID to context
		c.Set(userIDKey, userID)
		return next(c)
	}
}
