package api

import (
	"net/http"
	"time"

	"polychat-backend/internal/config"
	"polychat-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// timeoutSlack is added on top of the provider timeout to bound a whole request.
const timeoutSlack = 15 * time.Second

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler   *handlers.AuthHandler
	ChatHandler   *handlers.ChatHandlers
	ModelsHandler *handlers.ModelHandlers
	Config        *config.Config
	Logger        *zap.Logger
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	if deps.Config.ProviderTimeout > 0 {
		r.Use(middleware.Timeout(deps.Config.ProviderTimeout + timeoutSlack))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	requireAuth := JwtAuthMiddleware(deps.Config.JWTSecret, deps.Logger)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
		r.With(requireAuth).Get("/me", deps.AuthHandler.HandleMe)
	})

	// --- Authenticated Routes (JWT Required) ---
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/v1/chat", func(r chi.Router) {
			r.Post("/message", deps.ChatHandler.HandleSendMessage)
			r.Get("/conversations", deps.ChatHandler.HandleListConversations)
			r.Get("/conversations/{conversationID}", deps.ChatHandler.HandleGetConversation)
			r.Delete("/conversations/{conversationID}", deps.ChatHandler.HandleDeleteConversation)
		})

		r.Route("/v1/models", func(r chi.Router) {
			r.Get("/", deps.ModelsHandler.HandleListAllModels)
			r.Get("/{provider}", deps.ModelsHandler.HandleListProviderModels)
		})
	})

	return r
}
