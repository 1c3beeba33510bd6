package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/devcircle/devcircle-go/internal/middleware"
	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/service"
)

// PostCreator is the post use-case surface the handler needs.
type PostCreator interface {
	Create(ctx context.Context, authorID string, req model.CreatePostRequest, image []byte) (*model.Post, error)
}

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service   PostCreator
	validate  *validator.Validate
	maxUpload int64
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(svc PostCreator, maxUpload int64) *PostHandler {
	return &PostHandler{service: svc, validate: newValidator(), maxUpload: maxUpload}
}

// HandleCreatePost handles POST /posts: a multipart form with title, body,
// comma separated tags and an optional image. The author is the authenticated user.
func (h *PostHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	authorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}
	if !isMultipart(r) {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse("expected multipart/form-data"))
		return
	}
	if !parseMultipart(w, r, h.maxUpload) {
		return
	}
	if author := formValue(r, "author"); author != nil && *author != authorID {
		writeJSON(w, http.StatusForbidden, errorResponse("forbidden"))
		return
	}

	req := model.CreatePostRequest{
		Title: deref(formValue(r, "title")),
		Body:  deref(formValue(r, "body")),
		Tags:  splitList(deref(formValue(r, "tags"))),
	}
	if !validate(w, h.validate, req) {
		return
	}

	image, err := formImage(r, h.maxUpload, "image")
	if err != nil {
		writeImageError(w, err)
		return
	}

	post, err := h.service.Create(r.Context(), authorID, req, image)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse(msgInvalidInputs))
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse("Could not find a user for the provided id"))
		default:
			slog.ErrorContext(r.Context(), "create post failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("Creating post failed, please try again"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]model.PostResponse{"post": model.NewPostResponse(post)})
}
