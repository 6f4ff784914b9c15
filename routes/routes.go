package routes

import (
	"github.com/Dosada05/duel-system/handlers"
	"github.com/Dosada05/duel-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	SweepSecretHeader   = "X-Sweep-Secret"
	ScoreSecretHeader   = "X-Score-Feed-Secret"
	BillingSecretHeader = "X-Billing-Secret"
)

type RouterConfig struct {
	JWTSecret       string
	SweepSecret     string
	ScoreFeedSecret string
	BillingSecret   string
}

func SetupRoutes(
	router *chi.Mux,
	cfg RouterConfig,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	duelHandler *handlers.DuelHandler,
	sweepHandler *handlers.SweepHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", SweepSecretHeader, ScoreSecretHeader, BillingSecretHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(cfg.JWTSecret))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/duels", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", duelHandler.CreateDuelHandler)
			r.Get("/", duelHandler.ListUserDuelsHandler)
			r.Post("/accept/{token}", duelHandler.AcceptDuelHandler)
			r.Get("/{duelID}", duelHandler.GetDuelHandler)
		})

		// The metrics feed authenticates with a service secret, not a user token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSecret(ScoreSecretHeader, cfg.ScoreFeedSecret))

			r.Post("/{duelID}/score", duelHandler.SubmitScoreHandler)
		})
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/{userID}", userHandler.GetUserHandler)
		r.Post("/{userID}/avatar", userHandler.UploadAvatarHandler)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSecret(SweepSecretHeader, cfg.SweepSecret))

		r.Post("/internal/sweep", sweepHandler.TriggerSweepHandler)
	})

	// Tier changes come from the billing system, not from users.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSecret(BillingSecretHeader, cfg.BillingSecret))

		r.Put("/internal/users/{userID}/tier", userHandler.SetTierHandler)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/ws", webSocketHandler.ServeWs)
	})
}
