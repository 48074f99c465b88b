// Package repository declares the storage contracts the service layer
// depends on. Implementations live in subpackages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/user-service/internal/model"
)

// UserRepository is the UserStore: CRUD access to the users table, which is
// the only source of truth. Every method runs a single statement.
//
// GetByID and Delete return an error wrapping apperror.ErrNotFound when no
// row has the given id.
type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

// Pinger is implemented by stores that can report whether the underlying
// database is reachable. Used by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
