package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/devcircle/devcircle-go/internal/middleware"
	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/service"
)

// UserManager is the user use-case surface the handler needs.
type UserManager interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UpdateUser(ctx context.Context, userID string, req model.UpdateUserRequest, avatar []byte) (*model.User, error)
	Follow(ctx context.Context, userID, followID string) (*model.User, error)
	Unfollow(ctx context.Context, userID, followID string) (*model.User, error)
	Notifications(ctx context.Context, userID string) ([]model.Notification, error)
}

// UserHandler handles HTTP requests for profiles and the follow graph.
type UserHandler struct {
	service   UserManager
	validate  *validator.Validate
	maxUpload int64
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserManager, maxUpload int64) *UserHandler {
	return &UserHandler{service: svc, validate: newValidator(), maxUpload: maxUpload}
}

// HandleGetUser handles GET /users/{userId}.
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("Could not find a user for the provided id"))
			return
		}
		slog.ErrorContext(r.Context(), "get user failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Getting user failed, please try again!"))
		return
	}

	writeJSON(w, http.StatusOK, model.UserDetailResponse{User: model.NewUserDetail(user)})
}

// HandleUpdateUser handles PATCH /users/{userId}. Only the authenticated user may update their profile.
func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !requireSelf(w, r, userID) {
		return
	}

	var (
		req    model.UpdateUserRequest
		avatar []byte
	)
	if isMultipart(r) {
		if !parseMultipart(w, r, h.maxUpload) {
			return
		}
		req.Name = formValue(r, "name")
		req.Email = formValue(r, "email")
		req.Bio = formValue(r, "bio")

		var err error
		if avatar, err = formImage(r, h.maxUpload, "image", "avatar"); err != nil {
			writeImageError(w, err)
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	if !validate(w, h.validate, req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), userID, req, avatar)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse("Could not find user to update"))
		case errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse("Email is already in use"))
		case errors.Is(err, service.ErrInvalidInput):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse(msgInvalidInputs))
		default:
			slog.ErrorContext(r.Context(), "update user failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("Could not update user"))
		}
		return
	}

	writeJSON(w, http.StatusOK, model.ProfileResponse{User: model.UserSummary{
		Name:   user.Name,
		UserID: user.ID,
		Bio:    user.Bio,
		Email:  user.Email,
		Avatar: user.Avatar,
	}})
}

// HandleFollow handles POST /users/follow.
func (h *UserHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	h.handleEdge(w, r, h.service.Follow, service.ErrFollowFailed, "Follow failed, please try again")
}

// HandleUnfollow handles POST /users/unfollow.
func (h *UserHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.handleEdge(w, r, h.service.Unfollow, service.ErrUnfollowFailed, "Unfollow failed, please try again")
}

func (h *UserHandler) handleEdge(
	w http.ResponseWriter,
	r *http.Request,
	mutate func(context.Context, string, string) (*model.User, error),
	failed error,
	failedMsg string,
) {
	var req model.FollowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !requireSelf(w, r, req.UserID) {
		return
	}
	if !validate(w, h.validate, req) {
		return
	}

	user, err := mutate(r.Context(), req.UserID, req.FollowID)
	if err != nil {
		if errors.Is(err, failed) {
			slog.WarnContext(r.Context(), "follow graph mutation rejected", "error", err)
			writeJSON(w, http.StatusBadRequest, errorResponse(failedMsg))
			return
		}
		slog.ErrorContext(r.Context(), "follow graph mutation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse(failedMsg))
		return
	}

	writeJSON(w, http.StatusCreated, model.NewUserDetail(user))
}

// HandleNotifications handles GET /users/{userId}/notifications.
func (h *UserHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !requireSelf(w, r, userID) {
		return
	}

	list, err := h.service.Notifications(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("Could not find a user for the provided id"))
			return
		}
		slog.ErrorContext(r.Context(), "list notifications failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Fetching notifications failed, please try again"))
		return
	}

	writeJSON(w, http.StatusOK, model.NotificationsResponse{Notifications: list})
}

// requireSelf writes 401/403 and returns false unless the authenticated user is userID.
func requireSelf(w http.ResponseWriter, r *http.Request, userID string) bool {
	authID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return false
	}
	if authID != userID {
		writeJSON(w, http.StatusForbidden, errorResponse("forbidden"))
		return false
	}
	return true
}
