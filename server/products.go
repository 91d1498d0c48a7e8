package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/cjnlabay/midterm/internal/model"
	"github.com/labstack/echo/v4"
)

type userRequest struct {
	Fullname *string `json:"fullname"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// missing lists the required fields that are absent or blank
func (r userRequest) missing(withPassword bool) []string {
	var out []string
	if trimmed(r.Fullname) == "" {
		out = append(out, "fullname")
	}
	if trimmed(r.Username) == "" {
		out = append(out, "username")
	}
	if trimmed(r.Email) == "" {
		out = append(out, "email")
	}
	if withPassword && trimmed(r.Password) == "" {
		out = append(out, "password")
	}
	return out
}

// storeError maps store errors onto responses
func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody("user not found"))
	case errors.Is(err, ErrDuplicate):
		return c.JSON(http.StatusConflict, errorBody(ErrDuplicate.Error()))
	default:
		return err
	}
}

func publicUsers(accounts []Account) []model.User {
	out := make([]model.User, len(accounts))
	for i, a := range accounts {
		out[i] = a.User
	}
	return out
}

func (s *Server) handleListUsers(c echo.Context) error {
	accounts, err := s.store.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, publicUsers(accounts))
}

func (s *Server) handleGetUser(c echo.Context) error {
	a, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, a.User)
}

func (s *Server) handleCreateUser(c echo.Context) error {
	return s.createAccount(c, false)
}

func (s *Server) createAccount(c echo.Context, requirePassword bool) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request"))
	}

	if missing := req.missing(requirePassword); len(missing) > 0 {
		return c.JSON(http.StatusBadRequest, errorBody(strings.Join(missing, ", ")+" required"))
	}

	// An account created without a password cannot log in until one is set
	var hash string
	if trimmed(req.Password) != "" {
		var err error
		if hash, err = hashPassword(*req.Password); err != nil {
			return err
		}
	}

	a, err := s.store.Create(c.Request().Context(), Account{
		User: model.User{
			Fullname: trimmed(req.Fullname),
			Username: trimmed(req.Username),
			Email:    trimmed(req.Email),
		},
		PasswordHash: hash,
	})
	if err != nil {
		return storeError(c, err)
	}

	logger.Info("User created", logger.F("id", a.ID), logger.F("username", a.Username))
	return c.JSON(http.StatusCreated, a.User)
}

func (s *Server) handleUpdateUser(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request"))
	}

	var patch UserPatch
	var blank []string
	for _, f := range []struct {
		name string
		in   *string
		out  **string
	}{
		{"fullname", req.Fullname, &patch.Fullname},
		{"username", req.Username, &patch.Username},
		{"email", req.Email, &patch.Email},
	} {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if v == "" {
			blank = append(blank, f.name)
			continue
		}
		*f.out = &v
	}
	if len(blank) > 0 {
		return c.JSON(http.StatusBadRequest, errorBody(strings.Join(blank, ", ")+" must not be empty"))
	}

	// Empty password keeps the stored hash
	if trimmed(req.Password) != "" {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return err
		}
		patch.PasswordHash = &hash
	}

	a, err := s.store.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return storeError(c, err)
	}

	logger.Info("User updated", logger.F("id", a.ID))
	return c.JSON(http.StatusOK, a.User)
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	id := c.Param("id")
	if err := s.store.Delete(c.Request().Context(), id); err != nil {
		return storeError(c, err)
	}

	logger.Info("User deleted", logger.F("id", id), logger.F("by", c.Get(userIDKey)))
	return c.JSON(http.StatusOK, map[string]string{"_id": id})
}
