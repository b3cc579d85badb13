package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"putrace/internal/handler"
	"putrace/internal/httputil"
	authmw "putrace/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	PostHandler         *handler.PostHandler
	AvailabilityHandler *handler.AvailabilityHandler
	GroupHandler        *handler.GroupHandler
	AlertHandler        *handler.AlertHandler
	PresenceHandler     *handler.PresenceHandler
	ProximityHandler    *handler.ProximityHandler
	ContactHandler      *handler.ContactHandler
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)

		// Auth actions that require authentication
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		// Post endpoints
		r.Post("/posts", cfg.PostHandler.Create)
		r.Put("/posts/{postID}", cfg.PostHandler.Update)
		r.Get("/posts/{postID}", cfg.PostHandler.Get)

		// Availability signal
		r.Put("/availability", cfg.AvailabilityHandler.Upsert)
		r.Get("/availability", cfg.AvailabilityHandler.Get)

		// Audience groups
		r.Route("/groups", func(r chi.Router) {
			r.Post("/", cfg.GroupHandler.Create)
			r.Get("/", cfg.GroupHandler.List)
			r.Put("/{groupID}", cfg.GroupHandler.Update)
			r.Delete("/{groupID}", cfg.GroupHandler.Delete)
		})

		// Alert inbox and push tokens
		r.Get("/alerts", cfg.AlertHandler.List)
		r.Post("/device-tokens", cfg.AlertHandler.RegisterDeviceToken)
		r.Delete("/device-tokens", cfg.AlertHandler.RemoveDeviceToken)

		// Presence heartbeat
		r.Post("/presence/heartbeat", cfg.PresenceHandler.Heartbeat)

		// Proximity token publish/resolve
		r.Post("/proximity/publish", cfg.ProximityHandler.Publish)
		r.Post("/proximity/resolve", cfg.ProximityHandler.Resolve)

		// Contact export import
		r.Post("/contacts/import", cfg.ContactHandler.Import)
	})

	return r
}
