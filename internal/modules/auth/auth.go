package auth

import (
	"context"
	"errors"

	"github.com/georgemunganga/slist-backend/internal/modules/user"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a bearer token is missing, malformed, expired or badly signed.
	ErrInvalidToken = errors.New("invalid token")
)

// Session is the result of a successful register or login.
type Session struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

// Service defines the interface for authentication-related business logic.
type Service interface {
	Register(ctx context.Context, email, password, name string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// Authenticate validates a bearer token and returns the user it was issued to.
	Authenticate(ctx context.Context, token string) (*user.User, error)
}
