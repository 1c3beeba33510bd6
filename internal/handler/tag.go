package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devcircle/devcircle-go/internal/middleware"
	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/service"
)

// TagReader is the tag use-case surface the handler needs.
type TagReader interface {
	Get(ctx context.Context, name string) (model.TagWithPosts, error)
	List(ctx context.Context, names []string) ([]model.TagWithPosts, error)
	Follow(ctx context.Context, userID, name string) ([]model.Tag, error)
	Unfollow(ctx context.Context, userID, name string) ([]model.Tag, error)
}

// TagHandler handles HTTP requests for tags.
type TagHandler struct {
	service TagReader
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(svc TagReader) *TagHandler {
	return &TagHandler{service: svc}
}

// HandleGetTag handles GET /tags/{tagName}.
func (h *TagHandler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.service.Get(r.Context(), chi.URLParam(r, "tagName"))
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("Could not find tag"))
			return
		}
		slog.ErrorContext(r.Context(), "get tag failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Fetching tag failed, please try again"))
		return
	}

	writeJSON(w, http.StatusOK, model.TagResponse{Tag: tag})
}

// HandleListTags handles GET /tags with an optional names=a,b,c filter.
func (h *TagHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.List(r.Context(), splitList(r.URL.Query().Get("names")))
	if err != nil {
		slog.ErrorContext(r.Context(), "list tags failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Fetching tags failed, please try again"))
		return
	}

	writeJSON(w, http.StatusOK, model.TagListResponse{Tags: tags})
}

// HandleFollowTag handles POST /tags/{tagName}/follow.
func (h *TagHandler) HandleFollowTag(w http.ResponseWriter, r *http.Request) {
	h.handleFollow(w, r, h.service.Follow)
}

// HandleUnfollowTag handles POST /tags/{tagName}/unfollow.
func (h *TagHandler) HandleUnfollowTag(w http.ResponseWriter, r *http.Request) {
	h.handleFollow(w, r, h.service.Unfollow)
}

func (h *TagHandler) handleFollow(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string) ([]model.Tag, error)) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	tags, err := fn(r.Context(), userID, chi.URLParam(r, "tagName"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse("Could not find tag"))
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse("Could not find a user for the provided id"))
		default:
			slog.ErrorContext(r.Context(), "update followed tags failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("Updating followed tags failed, please try again"))
		}
		return
	}

	writeJSON(w, http.StatusOK, model.FollowedTagsResponse{Tags: tags})
}
