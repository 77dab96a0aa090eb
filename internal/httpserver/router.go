package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"whisperlink/internal/config"
	"whisperlink/internal/domain"
	"whisperlink/internal/realtime"
	"whisperlink/internal/security"
	"whisperlink/internal/service"
)

// Deps bundles everything the HTTP layer needs. Repositories arrive as
// interfaces so either store backend plugs in.
type Deps struct {
	Users    domain.UserRepository
	Messages domain.MessageStore
	Chats    domain.ChatRepository

	Registry *realtime.Registry
	Presence *realtime.Tracker
	Router   *realtime.Router

	Tokens *security.TokenService
	Hasher *security.PasswordHasher
}

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(cfg *config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	authSvc := service.NewAuthService(d.Users, d.Chats, d.Tokens, d.Hasher)
	userSvc := service.NewUserService(d.Users, d.Presence)
	msgSvc := service.NewMessageService(d.Users, d.Messages, d.Chats, d.Router)
	chatSvc := service.NewChatService(d.Chats, d.Users, d.Messages, d.Presence)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": cfg.AppName,
			"version": "1.0.0",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", handleSignup(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Tokens, d.Users))

			// Users
			r.Route("/users", func(r chi.Router) {
				r.Get("/me", handleMe(userSvc))
				r.Put("/me", handleUpdateProfile(userSvc))
				r.Get("/search", handleSearchUsers(userSvc))
			})

			// Chats
			r.Route("/chats", func(r chi.Router) {
				r.Get("/", handleListChats(chatSvc))
				r.Post("/with/{userID}", handleEnsureChat(chatSvc))
				r.Get("/{userID}/messages", handleHistory(msgSvc))
				r.Post("/{userID}/read", handleMarkRead(msgSvc))
				r.Put("/{chatID}/nickname", handleSetNickname(chatSvc))
				r.Put("/{chatID}/wallpaper", handleSetWallpaper(chatSvc))
			})

			// Messages
			r.Post("/messages", handleSendMessage(msgSvc))
			r.Post("/messages/{messageID}/reaction", handleReaction(msgSvc))

			// Uploads (implementation in separate file)
			r.Mount("/uploads", UploadRoutes(cfg))
		})
	})

	// WebSocket endpoint
	wsOpts := realtime.Options{
		PingInterval: cfg.HeartbeatInterval,
		PongTimeout:  cfg.HeartbeatTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	r.Get("/ws", realtime.MakeHandler(d.Registry, d.Presence, d.Tokens, d.Users, cfg.CORSOrigins, wsOpts))

	return r
}
