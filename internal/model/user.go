// Package model defines the data structures used throughout the application.
package model

// User is the single persisted entity.
//
// ID is assigned by the database on insert and never changes afterwards.
// The `json` tags shape the HTTP representation; the `db` tags tell sqlx
// which column feeds which field when scanning rows.
//
// No uniqueness is enforced on Username or Email; two users may share both.
type User struct {
	ID       int64  `json:"id"       db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email"    db:"email"`
}
