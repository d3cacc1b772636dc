package auth

import (
	"context"
	"errors"

	"github.com/georgemunganga/slist-backend/internal/modules/user"
	"golang.org/x/crypto/bcrypt"
)

type service struct {
	users  user.Service
	tokens *Tokens
}

// NewService creates a new auth service.
func NewService(users user.Service, tokens *Tokens) Service {
	return &service{users: users, tokens: tokens}
}

func (s *service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	u, err := s.users.RegisterUser(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.session(u)
}

func (s *service) Authenticate(ctx context.Context, token string) (*user.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, userID)
}

func (s *service) session(u *user.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID.String())
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}
