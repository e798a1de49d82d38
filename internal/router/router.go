package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/mkravets/orbita-api/internal/aim"
	"github.com/mkravets/orbita-api/internal/auth"
	"github.com/mkravets/orbita-api/internal/cascade"
	"github.com/mkravets/orbita-api/internal/middlewares"
	"github.com/mkravets/orbita-api/internal/user"
)

type RouterConfig struct {
	UserHandler    *user.Handler
	AimHandler     *aim.Handler
	CascadeHandler *cascade.Handler
}

func New(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CorsMiddleware)

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/logout", auth.NewHandler().Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Mount("/users", user.Routes(cfg.UserHandler))
		r.Mount("/aims", aim.Routes(cfg.AimHandler))

		r.Post("/aims/{id}/status", cfg.CascadeHandler.SetStatus)
	})
	return r
}
