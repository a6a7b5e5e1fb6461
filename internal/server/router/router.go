package router

import (
	"log/slog"

	"github.com/andymarkow/tradesim/internal/auth"
	"github.com/andymarkow/tradesim/internal/server/handlers"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/trading"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type Options struct {
	log            *slog.Logger
	auth           *auth.JWTAuth
	trading        *trading.Service
	cookieSecure   bool
	allowedOrigins []string
}

func NewRouter(store storage.Storage, opts ...Option) chi.Router {
	r := chi.NewRouter()

	rOpts := Options{
		log:  slog.Default(),
		auth: auth.NewJWTAuth([]byte("")),
	}

	for _, opt := range opts {
		opt(&rOpts)
	}

	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Logger,
	)

	if len(rOpts.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rOpts.allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	hOpts := []handlers.Option{
		handlers.WithLogger(rOpts.log),
		handlers.WithAuth(rOpts.auth),
		handlers.WithCookieSecure(rOpts.cookieSecure),
	}

	if rOpts.trading != nil {
		hOpts = append(hOpts, handlers.WithTrading(rOpts.trading))
	}

	h := handlers.NewHandlers(store, hOpts...)

	r.Get("/ping", h.Ping)

	r.Group(func(r chi.Router) {
		r.Post("/api/user/register", h.UserRegister)
		r.Post("/api/user/login", h.UserLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(
			rOpts.auth.Verifier(),
			h.Authenticator,
		)

		r.Post("/api/user/logout", h.UserLogout)
		r.Get("/api/user/me", h.UserProfile)
		r.Get("/api/user/balance", h.GetUserBalance)

		r.Get("/api/trades", h.GetUserTrades)
		r.Post("/api/trades", h.CreateTrade)
		r.Get("/api/trades/{id}", h.GetUserTrade)
		r.Get("/api/prices/{pair}", h.GetPrice)

		r.Get("/api/deposits", h.GetUserDeposits)
		r.Post("/api/deposits", h.CreateDeposit)
		r.Get("/api/withdrawals", h.GetUserWithdrawals)
		r.Post("/api/withdrawals", h.CreateWithdrawal)

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(h.AdminOnly)

			r.Get("/users", h.ListUsers)
			r.Put("/users/{id}/balance", h.SetUserBalance)
			r.Get("/deposits", h.ListDeposits)
			r.Post("/deposits/{id}/review", h.ReviewDeposit)
			r.Get("/withdrawals", h.ListWithdrawals)
			r.Post("/withdrawals/{id}/review", h.ReviewWithdrawal)
			r.Get("/trades", h.ListTrades)
		})
	})

	return r
}

type Option func(r *Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.log = logger
	}
}

func WithAuth(auth *auth.JWTAuth) Option {
	return func(o *Options) {
		o.auth = auth
	}
}

func WithTrading(svc *trading.Service) Option {
	return func(o *Options) {
		o.trading = svc
	}
}

func WithCookieSecure(secure bool) Option {
	return func(o *Options) {
		o.cookieSecure = secure
	}
}

func WithAllowedOrigins(origins []string) Option {
	return func(o *Options) {
		o.allowedOrigins = origins
	}
}
