// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// UserService takes a repository.UserRepository (interface), NOT a
// *sqlite.DB. Tests pass an in-memory mock (see user_test.go); production
// passes the SQLite store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
)

// UserService handles business logic for users.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// List returns every persisted user. An empty store yields an empty slice.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// GetByID retrieves a user by id.
// Returns apperror.ErrNotFound if the user doesn't exist.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	// The database only hands out positive ids; anything else cannot exist.
	if id <= 0 {
		return nil, apperror.NotFound("user", id)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// NotFound is a normal outcome, only log real storage failures.
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to get user",
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

// Create validates and stores a new user.
//
// Both fields are trimmed and must be non-empty afterwards. No length limit
// and no email format check is applied. A rejected request never reaches
// the repository, so nothing is persisted.
func (s *UserService) Create(ctx context.Context, username, email string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	user := &model.User{
		Username: username,
		Email:    email,
	}

	// The repo assigns the id.
	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Delete removes a user by id.
// Returns apperror.ErrNotFound if the user doesn't exist.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.NotFound("user", id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to delete user",
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
		}
		return fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}
