package routes

import (
	"net/http"

	"strings"

	"github.com/align-alt-therapy/align-backend/internal/config"
	"github.com/align-alt-therapy/align-backend/internal/handlers"
	"github.com/align-alt-therapy/align-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// New builds the HTTP router with all middlewares and routes wired up.
func New(cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		// Case-insensitive match so origins configured with mixed case still work
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			for _, allowed := range cfg.AllowedOrigins {
				if strings.EqualFold(strings.TrimSpace(allowed), origin) {
					return true
				}
			}
			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.IsProduction() {
		for _, m := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(m)
		}
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Auth
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", handlers.Signup)
			r.Post("/signin", handlers.Signin)
			r.Post("/refresh", handlers.Refresh)
			r.Post("/signout", handlers.Signout)
			r.Get("/me", handlers.GetMe)
		})

		// Account
		r.Route("/account", func(r chi.Router) {
			r.Patch("/profile", handlers.UpdateProfile)
			r.Post("/delete", handlers.RequestAccountDeletion)
		})

		// Public content
		r.Get("/banners", handlers.GetHeroBanners)
		r.Get("/playlists", handlers.GetPlaylists)
		r.Get("/playlists/{slug}", handlers.GetPlaylistBySlug)
		r.Post("/promo/validate", handlers.ValidatePromoCode)

		// Player
		r.Route("/player", func(r chi.Router) {
			r.Post("/plays", handlers.RecordPlay)
			r.Get("/plays", handlers.GetRecentPlays)
		})

		// Personalized service
		r.Route("/service", func(r chi.Router) {
			r.Post("/questions", handlers.CreateQuestion)
			r.Get("/questions", handlers.ListMyQuestions)
			r.Get("/questions/{id}", handlers.GetQuestionThread)
			r.Post("/questions/{id}/replies", handlers.AddFollowUp)
			r.Get("/questions/{id}/ws", handlers.SupportThreadWS)
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Post("/signin", handlers.AdminSignin)
			r.Post("/signout", handlers.AdminSignout)

			r.Post("/upload", handlers.UploadFile)
			r.Post("/unblock-ip", handlers.UnblockIPAddress)

			r.Get("/banners", handlers.AdminListHeroBanners)
			r.Post("/banners", handlers.CreateHeroBanner)
			r.Put("/banners/{id}", handlers.UpdateHeroBanner)
			r.Delete("/banners/{id}", handlers.DeleteHeroBanner)

			r.Get("/songs", handlers.AdminListSongs)
			r.Post("/songs", handlers.CreateSong)
			r.Put("/songs/{id}", handlers.UpdateSong)
			r.Delete("/songs/{id}", handlers.DeleteSong)

			r.Get("/playlists", handlers.AdminListPlaylists)
			r.Post("/playlists", handlers.CreatePlaylist)
			r.Put("/playlists/{id}", handlers.UpdatePlaylist)
			r.Put("/playlists/{id}/songs", handlers.SetPlaylistSongs)
			r.Delete("/playlists/{id}", handlers.DeletePlaylist)

			r.Get("/promo-codes", handlers.AdminListPromoCodes)
			r.Post("/promo-codes", handlers.CreatePromoCode)
			r.Delete("/promo-codes/{id}", handlers.DeactivatePromoCode)

			r.Get("/service/questions", handlers.AdminListQuestions)
			r.Post("/service/questions/{id}/replies", handlers.AddRecommendation)
			r.Post("/service/questions/{id}/close", handlers.CloseQuestion)
		})
	})

	return r
}
