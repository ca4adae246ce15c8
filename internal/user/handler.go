package user

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tcharles/user-auth-api/internal/httputil"
	"github.com/tcharles/user-auth-api/internal/logging"

	"github.com/google/uuid"
)

// CallerFunc extracts the authenticated user id from a request context.
// The auth middleware provides the production implementation; taking it as
// a function keeps this package free of an auth dependency.
type CallerFunc func(ctx context.Context) (uuid.UUID, bool)

// Handler contains HTTP handlers for user endpoints
type Handler struct {
	store  Store
	caller CallerFunc
	logger *logging.Logger
}

func NewHandler(store Store, caller CallerFunc, logger *logging.Logger) *Handler {
	return &Handler{
		store:  store,
		caller: caller,
		logger: logger,
	}
}

// ProfileResponse represents a user in API responses
type ProfileResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// UsersResponse represents a page of users
type UsersResponse struct {
	Users  []ProfileResponse `json:"users"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// Profile returns the authenticated caller's own identity
// @Summary      Get own profile
// @Description  Return the identity of the authenticated user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /profile [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := h.caller(r.Context())
	if !ok {
		logger.Warn("profile requested without authenticated user in context")
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.store.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Token subject no longer exists
			logger.Warn("profile failed: user not found", "user_id", userID)
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("profile failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ProfileResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}, http.StatusOK)
}

// List returns a page of registered users
// @Summary      List users
// @Description  Return registered users, paginated by limit and offset
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size (max 100)"
// @Param        offset query int false "Page offset"
// @Success      200 {object} UsersResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	limit := queryInt(r, "limit", defaultListLimit)
	offset := queryInt(r, "offset", 0)

	users, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		logger.Error("user listing failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	resp := UsersResponse{
		Users:  make([]ProfileResponse, 0, len(users)),
		Limit:  limit,
		Offset: offset,
	}
	for _, u := range users {
		resp.Users = append(resp.Users, ProfileResponse{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
		})
	}

	httputil.RespondJSON(w, resp, http.StatusOK)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
