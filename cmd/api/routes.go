package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devcircle/devcircle-go/internal/handler"
	"github.com/devcircle/devcircle-go/internal/metrics"
	"github.com/devcircle/devcircle-go/internal/middleware"
)

type routerDeps struct {
	Auth  *handler.AuthHandler
	Users *handler.UserHandler
	Posts *handler.PostHandler
	Tags  *handler.TagHandler

	DB       handler.Pinger
	Tokens   middleware.TokenValidator
	Metrics  middleware.HTTPRecorder
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	AuthRateRPS   float64
	AuthRateBurst int
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(chimw.Recoverer)

	r.Get("/health", handler.Health(d.DB))
	r.Handle("/metrics", metrics.Handler(d.Gatherer))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(d.AuthRateRPS, d.AuthRateBurst))
		r.Post("/users/signup", d.Auth.HandleSignup)
		r.Post("/users/login", d.Auth.HandleLogin)
		r.Post("/users/google-login", d.Auth.HandleGoogleLogin)
	})

	r.Get("/users/{userId}", d.Users.HandleGetUser)
	r.Get("/tags", d.Tags.HandleListTags)
	r.Get("/tags/{tagName}", d.Tags.HandleGetTag)

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(d.Tokens))
		r.Patch("/users/{userId}", d.Users.HandleUpdateUser)
		r.Get("/users/{userId}/notifications", d.Users.HandleNotifications)
		r.Post("/users/follow", d.Users.HandleFollow)
		r.Post("/users/unfollow", d.Users.HandleUnfollow)

		r.Post("/posts", d.Posts.HandleCreatePost)

		r.Post("/tags/{tagName}/follow", d.Tags.HandleFollowTag)
		r.Post("/tags/{tagName}/unfollow", d.Tags.HandleUnfollowTag)
	})

	return r
}
