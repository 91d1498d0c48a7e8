package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cjnlabay/midterm/internal/model"
)

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the login reply. Only the token is required.
type LoginResponse struct {
	Token string `json:"token"`
}

// UserPayload is the request body for register, create and update.
// An empty password is left out of the JSON entirely.
type UserPayload struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

func userPath(id string) string {
	return "products/" + url.PathEscape(id)
}

func checkUser(what string, u model.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return &DecodeError{What: what, Err: errors.New("record has no id")}
	}
	return nil
}

// checkSameUser also requires the record to be the one that was asked for
func checkSameUser(what, id string, u model.User) error {
	if err := checkUser(what, u); err != nil {
		return err
	}
	if u.ID != id {
		return &DecodeError{What: what, Err: fmt.Errorf("got record %q, want %q", u.ID, id)}
	}
	return nil
}

// Login exchanges credentials for a session token
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	var resp LoginResponse
	if err := c.Do(ctx, http.MethodPost, "auth/login", creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &DecodeError{What: "login response", Err: errors.New("missing token")}
	}
	return resp.Token, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, p UserPayload) (model.User, error) {
	var u model.User
	if err := c.Do(ctx, http.MethodPost, "products/register", p, &u); err != nil {
		return model.User{}, err
	}
	if err := checkUser("register response", u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// ListUsers fetches the whole collection in server order
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.Do(ctx, http.MethodGet, "products", nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		return nil, &DecodeError{What: "user list", Err: errors.New("expected a JSON array")}
	}
	for i, u := range users {
		if err := checkUser(fmt.Sprintf("user list[%d]", i), u); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// GetUser fetches one record
func (c *Client) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	if err := c.Do(ctx, http.MethodGet, userPath(id), nil, &u); err != nil {
		return model.User{}, err
	}
	if err := checkSameUser("user", id, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// CreateUser adds a record and returns the server's canonical copy
func (c *Client) CreateUser(ctx context.Context, p UserPayload) (model.User, error) {
	var u model.User
	if err := c.Do(ctx, http.MethodPost, "products", p, &u); err != nil {
		return model.User{}, err
	}
	if err := checkUser("create response", u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// UpdateUser replaces the record's fields. A blank password is not sent.
func (c *Client) UpdateUser(ctx context.Context, id string, p UserPayload) (model.User, error) {
	var u model.User
	if err := c.Do(ctx, http.MethodPut, userPath(id), p, &u); err != nil {
		return model.User{}, err
	}
	if err := checkSameUser("update response", id, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// DeleteUser removes a record; the response body is ignored
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, userPath(id), nil, nil)
}
