package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/devcircle/devcircle-go/internal/model"
	"github.com/devcircle/devcircle-go/internal/service"
)

// Authenticator is the auth use-case surface the handler needs.
type Authenticator interface {
	Signup(ctx context.Context, req model.SignupRequest, avatar []byte) (model.AuthUser, error)
	Login(ctx context.Context, req model.LoginRequest) (model.LoginUser, error)
	GoogleLogin(ctx context.Context, idToken string) (model.AuthUser, error)
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service   Authenticator
	validate  *validator.Validate
	maxUpload int64
}

// NewAuthHandler creates a new AuthHandler. maxUpload bounds the avatar size.
func NewAuthHandler(svc Authenticator, maxUpload int64) *AuthHandler {
	return &AuthHandler{service: svc, validate: newValidator(), maxUpload: maxUpload}
}

// HandleSignup handles POST /users/signup. It accepts a multipart form with an
// optional avatar image, or a JSON body.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var (
		req    model.SignupRequest
		avatar []byte
	)
	if isMultipart(r) {
		if !parseMultipart(w, r, h.maxUpload) {
			return
		}
		req.Name = deref(formValue(r, "name"))
		req.Email = deref(formValue(r, "email"))
		req.Password = deref(formValue(r, "password"))

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

	user, err := h.service.Signup(r.Context(), req, avatar)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse("User already exists, please login instead"))
		case errors.Is(err, service.ErrInvalidInput):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse(msgInvalidInputs))
		default:
			slog.ErrorContext(r.Context(), "signup failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("Signing up failed, please try again!"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.AuthResponse{User: user})
}

// HandleLogin handles POST /users/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validate(w, h.validate, req) {
		return
	}

	user, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownEmail):
			writeJSON(w, http.StatusForbidden, errorResponse("Invalid credentials, login failed!"))
		case errors.Is(err, service.ErrWrongPassword):
			writeJSON(w, http.StatusUnauthorized, errorResponse("Invalid credentials, login failed!"))
		default:
			slog.ErrorContext(r.Context(), "login failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse("Logging in failed, please try again."))
		}
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{User: user})
}

// HandleGoogleLogin handles POST /users/google-login.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.GoogleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validate(w, h.validate, req) {
		return
	}

	user, err := h.service.GoogleLogin(r.Context(), req.TokenID)
	if err != nil {
		if errors.Is(err, service.ErrIdentityUnverified) {
			slog.WarnContext(r.Context(), "google identity rejected", "error", err)
			writeJSON(w, http.StatusUnauthorized, errorResponse("Could not verify your Google account"))
			return
		}
		slog.ErrorContext(r.Context(), "google login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Signup failed, please try again"))
		return
	}

	writeJSON(w, http.StatusCreated, model.AuthResponse{User: user})
}

func writeImageError(w http.ResponseWriter, err error) {
	if errors.Is(err, errImageTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("image too large"))
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse("could not read uploaded image"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
