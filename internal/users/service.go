// Package users implements the platform's identity authority: account
// registration, password login, bearer token issuance and the follow graph.
// Every other service resolves callers against this one.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for a wrong email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
)

// EventPublisher publishes email events for the email service to consume.
type EventPublisher interface {
	Publish(topic string, event any) error
}

// Service implements account and follow-graph operations.
type Service struct {
	repo       Repository
	tokens     *TokenManager
	events     EventPublisher
	emailTopic string
}

// NewService creates the users service. events may be nil, in which case no
// email events are published.
func NewService(repo Repository, tokens *TokenManager, events EventPublisher, emailTopic string) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		events:     events,
		emailTopic: emailTopic,
	}
}

// Register creates an account and returns a signed token. The welcome email
// event is best effort; a publish failure does not fail the registration.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, req.Name, req.Email, string(hash))
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	s.publishEmail("welcome", user.Email, map[string]any{"name": user.Name})

	return &AuthResponse{Token: token, User: user}, nil
}

// Login verifies the password and issues a token. The same error covers an
// unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to the account it was issued for.
// This backs GET /users/me, the endpoint the other services delegate
// identity resolution to.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ForgotPassword publishes a password-reset email event. An unknown email is
// reported as not found so the handler can answer without leaking timing.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	s.publishEmail("password_reset", user.Email, map[string]any{
		"reset_link": fmt.Sprintf("https://mediaverse.example/reset-password?user=%d", user.ID),
	})
	return nil
}

func (s *Service) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}
	if _, err := s.repo.GetByID(ctx, followeeID); err != nil {
		return err
	}
	return s.repo.Follow(ctx, followerID, followeeID)
}

func (s *Service) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	return s.repo.Unfollow(ctx, followerID, followeeID)
}

func (s *Service) Followers(ctx context.Context, userID int64) ([]Profile, error) {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Followers(ctx, userID)
}

func (s *Service) Following(ctx context.Context, userID int64) ([]Profile, error) {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Following(ctx, userID)
}

func (s *Service) publishEmail(eventType, recipient string, data map[string]any) {
	if s.events == nil {
		return
	}

	event := map[string]any{
		"message_id": uuid.New().String(),
		"event_type": eventType,
		"timestamp":  time.Now(),
		"recipient":  recipient,
		"data":       data,
	}
	if err := s.events.Publish(s.emailTopic, event); err != nil {
		slog.Error("failed to publish email event", "type", eventType, "error", err)
	}
}
