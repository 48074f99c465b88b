package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
)

// compile-time checks that *DB implements the repository interfaces
var (
	_ repository.UserRepository = (*DB)(nil)
	_ repository.Pinger         = (*DB)(nil)
)

// List returns every user ordered by id.
//
// The result is never nil: an empty table yields an empty slice, which
// encodes as `[]` rather than `null` in JSON. SelectContext appends into the
// slice we hand it, so starting from a non-nil empty slice is enough.
func (db *DB) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := db.conn.SelectContext(ctx, &users, db.queries.listUsers); err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a user by id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := db.conn.GetContext(ctx, &u, db.queries.getUserByID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return &u, nil
}

// Create inserts a new user and fills in the database-assigned id.
//
// INSERT ... RETURNING hands back the stored row in the same statement,
// so there is no second round trip (and no window in which another writer
// could interleave between INSERT and SELECT).
func (db *DB) Create(ctx context.Context, user *model.User) error {
	var stored model.User
	if err := db.conn.GetContext(ctx, &stored, db.queries.createUser, user.Username, user.Email); err != nil {
		return fmt.Errorf("sqlite: creating user: %w", err)
	}
	*user = stored
	return nil
}

// Delete removes the user with the given id.
// Returns apperror.ErrNotFound if no row matched.
func (db *DB) Delete(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, db.queries.deleteUser, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
