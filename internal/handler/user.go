package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
)

// maxBodyBytes caps request bodies; a user is two short strings.
const maxBodyBytes = 1 << 20

// UserService is what UserHandler needs from the business layer.
// *service.UserService satisfies it; tests pass a mock.
type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, username, email string) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

// UserHandler exposes the users resource over HTTP.
//
// ROUTES:
//
//	GET    /users       → HandleList
//	GET    /users/{id}  → HandleGetByID
//	POST   /users       → HandleCreate
//	DELETE /users/{id}  → HandleDelete
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// createUserRequest is the only accepted body for POST /users.
// Unknown fields (including "id") are ignored; missing fields decode as ""
// and are rejected by the service's validation.
type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// HandleList returns all users.
//
// HTTP: GET /users
// RESPONSE: 200 [{"id":1,"username":"drei","email":"drei@example.com"}, ...]
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGetByID returns a single user.
//
// HTTP: GET /users/{id}
// RESPONSE: 200 user | 400 malformed id | 404 unknown id
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleCreate stores a new user.
//
// HTTP: POST /users
// REQUEST BODY: {"username": "drei", "email": "drei@example.com"}
// RESPONSE: 201 user with assigned id | 400 malformed body or missing field
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid create user body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), req.Username, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/users/%d", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

// HandleDelete removes a user.
//
// HTTP: DELETE /users/{id}
// RESPONSE: 204 no body | 400 malformed id | 404 unknown id
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseID reads the {id} URL parameter as a base-10 int64.
// Anything else ("abc", "1.5", overflow) is a BadRequest, raised before
// the service is called.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.BadRequest(fmt.Sprintf("invalid user id %q", raw))
	}
	return id, nil
}

// decodeJSON reads exactly one JSON value from a size-limited body into dst.
// Malformed JSON, a non-object value, trailing data or an oversized body
// all become apperror.BadRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.BadRequest("request body is empty")
		case errors.As(err, &maxErr):
			return apperror.BadRequest(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		default:
			return apperror.BadRequest("invalid JSON body: " + err.Error())
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.BadRequest("request body must contain a single JSON object")
	}
	return nil
}
