package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/kochbuch-be/internal/api/handlers"
	"github.com/isdelr/kochbuch-be/internal/auth"
	"github.com/isdelr/kochbuch-be/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Users      services.UserServiceProvider
	Events     services.EventServiceProvider
	Recipes    services.RecipeServiceProvider
	Comments   services.CommentServiceProvider
	Favorites  services.FavoriteServiceProvider
	Categories services.CategoryServiceProvider
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	handlers.TokenIssuer
	auth.Verifier
}

// NewRouter creates and configures a new Chi router.
func NewRouter(svc Services, tokens TokenService, revoker handlers.TokenRevoker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(svc.Users, svc.Events, tokens, revoker)
	recipeHandler := handlers.NewRecipeHandler(svc.Recipes)
	commentHandler := handlers.NewCommentHandler(svc.Comments)
	favoriteHandler := handlers.NewFavoriteHandler(svc.Favorites)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	eventHandler := handlers.NewEventHandler(svc.Events)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("kochbuch backend is running"))
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Get("/public-recipes", recipeHandler.ListPublic)
		r.Get("/public-recipes/{id}", recipeHandler.GetPublic)
		r.Get("/categories", categoryHandler.List)
		r.Get("/comments/{recipeId}", commentHandler.List)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens))

			r.Post("/logout", userHandler.Logout)
			r.Get("/protected", userHandler.Protected)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", userHandler.GetProfile)
				r.Put("/", userHandler.UpdateProfile)
				r.Put("/password", userHandler.ChangePassword)
				r.Get("/activity", eventHandler.GetRecent)
			})

			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", recipeHandler.ListOwn)
				r.Post("/", recipeHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", recipeHandler.Update)
					r.Delete("/", recipeHandler.Delete)
					r.Put("/publish", recipeHandler.Publish)
					r.Put("/unpublish", recipeHandler.Unpublish)
				})
			})

			r.Post("/comments/{recipeId}", commentHandler.Create)
			r.Delete("/comments/{commentId}", commentHandler.Delete)

			r.Get("/favorites", favoriteHandler.List)
			r.Post("/favorites/{recipeId}", favoriteHandler.Add)
			r.Delete("/favorites/{recipeId}", favoriteHandler.Remove)
		})
	})

	return r
}

// requestIDLogger adds chi's request id to the request-scoped logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}
