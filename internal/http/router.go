package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/robot-helper/internal/http/handlers"
	"github.com/pribylovaa/robot-helper/internal/http/middleware"
)

// API — сервисный слой целиком: операции хендлеров и разбор bearer-токена.
type API interface {
	handlers.Service
	middleware.IdentityResolver
}

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.

	// Limiter == nil отключает ограничение частоты для /users/register и /users/login.
	Limiter       middleware.Limiter
	KeyPrefix     string
	AuthPerMinute int
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(api API, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования
		middleware.Logging(opts.Logger),
		middleware.Metrics(),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	h := handlers.New(api)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, api, opts)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, api, opts)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, res middleware.IdentityResolver, opts Options) {
	limited := middleware.RateLimit(opts.Limiter, opts.KeyPrefix, opts.AuthPerMinute)
	auth := middleware.RequireAuth(res)

	r.Get("/", h.Root)

	// users (public)
	r.With(limited).Post("/users/register", h.Register)
	r.With(limited).Post("/users/login", h.Login)
	r.Post("/users/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/users/logout", h.Logout)
		r.Get("/users/{id}", h.GetUser)
		r.Patch("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)

		// scripts
		r.Post("/scripts", h.CreateScript)
		r.Get("/scripts", h.ListScripts)
		r.Get("/scripts/{id}", h.GetScript)
		r.Patch("/scripts/{id}", h.UpdateScript)
		r.Delete("/scripts/{id}", h.DeleteScript)

		// integration
		r.Post("/integration/send_message", h.SendMessage)
	})
}
