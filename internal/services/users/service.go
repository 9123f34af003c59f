package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Service creates and looks up player identities by username
type Service struct {
	storage storage.Users
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new user Service
func New(storage storage.Users, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "users")),
	}
}

// Signup creates a user with a fresh id
func (s *Service) Signup(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.ErrMissingUsername
	}

	// Check if username exists
	_, err := s.storage.GetUserByUsername(ctx, username)
	if err == nil {
		return nil, model.ErrUsernameTaken
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	user := &model.User{
		ID:        model.UserID(s.random.UUID()),
		Username:  username,
		CreatedAt: s.clock.Now(),
	}
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up",
		slog.String("user_id", string(user.ID)),
		slog.String("username", username),
	)
	return user, nil
}

// Login returns the existing user with the given username
func (s *Service) Login(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.ErrMissingUsername
	}
	return s.storage.GetUserByUsername(ctx, username)
}

// Get returns a user by id
func (s *Service) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	if id == "" {
		return nil, model.ErrMissingUserID
	}
	return s.storage.GetUser(ctx, id)
}
