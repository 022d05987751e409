package api

import (
	"net/http"

	"github.com/recipe-finder/internal/config"
	"github.com/recipe-finder/internal/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// RouterConfig carries the settings the route table depends on.
type RouterConfig struct {
	// UploadsRoot is served under /uploads/. Empty disables it.
	UploadsRoot string
	// RecipeWritePolicy is config.WritePolicyAdmin or
	// config.WritePolicyAuthenticated.
	RecipeWritePolicy string
	Logger            *zap.Logger
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(h *Handler, auth *middleware.AuthMiddleware, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Uploaded recipe images
	if cfg.UploadsRoot != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsRoot))))
	}

	mux.Handle("/api/", middleware.JSON(apiRoutes(h, auth, cfg)))

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Apply global middleware
	return middleware.CORS(middleware.Logger(logger)(mux))
}

func apiRoutes(h *Handler, auth *middleware.AuthMiddleware, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := func(fn http.HandlerFunc) http.Handler { return auth.Authenticate(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return auth.RequireAdmin(fn) }

	// Recipe writes are admin-only unless the policy opens them to every
	// signed-in user. Either way update and delete stay owner-scoped.
	writer := admin
	if cfg.RecipeWritePolicy == config.WritePolicyAuthenticated {
		writer = authed
	}

	// Public routes
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("POST /api/users/register", h.Register)
	mux.HandleFunc("POST /api/users/login", h.Login)
	mux.HandleFunc("POST /api/users/admin/login", h.AdminLogin)
	mux.HandleFunc("GET /api/recipes", h.ListRecipes)
	mux.Handle("GET /api/recipes/{id}", auth.Optional(http.HandlerFunc(h.GetRecipe)))
	mux.HandleFunc("GET /api/recipes/{id}/reviews", h.ListReviews)
	mux.HandleFunc("GET /api/categories", h.ListCategories)

	// Account routes
	mux.Handle("GET /api/users/me", authed(h.GetProfile))
	mux.Handle("PUT /api/users/me/password", authed(h.ChangePassword))
	mux.Handle("GET /api/users/me/favorites", authed(h.ListFavorites))

	// Recipe routes
	mux.Handle("POST /api/recipes", writer(h.CreateRecipe))
	mux.Handle("PUT /api/recipes/{id}", writer(h.UpdateRecipe))
	mux.Handle("DELETE /api/recipes/{id}", writer(h.DeleteRecipe))

	// Social routes
	mux.Handle("PUT /api/recipes/{id}/favorite", authed(h.AddFavorite))
	mux.Handle("DELETE /api/recipes/{id}/favorite", authed(h.RemoveFavorite))
	mux.Handle("PUT /api/recipes/{id}/rating", authed(h.RateRecipe))
	mux.Handle("POST /api/recipes/{id}/reviews", authed(h.CreateReview))
	mux.Handle("PUT /api/reviews/{id}", authed(h.UpdateReview))
	mux.Handle("DELETE /api/reviews/{id}", authed(h.DeleteReview))

	// Collection routes
	mux.Handle("GET /api/users/me/collections", authed(h.ListCollections))
	mux.Handle("POST /api/users/me/collections", authed(h.CreateCollection))
	mux.Handle("PUT /api/users/me/collections/{id}", authed(h.UpdateCollection))
	mux.Handle("DELETE /api/users/me/collections/{id}", authed(h.DeleteCollection))
	mux.Handle("PUT /api/users/me/collections/{id}/recipes/{recipeId}", authed(h.AddToCollection))
	mux.Handle("DELETE /api/users/me/collections/{id}/recipes/{recipeId}", authed(h.RemoveFromCollection))

	// Admin routes
	mux.Handle("GET /api/admin/recipes", admin(h.AdminListRecipes))
	mux.Handle("PUT /api/admin/recipes/{id}/status", admin(h.UpdateRecipeStatus))
	mux.Handle("DELETE /api/admin/recipes/{id}", admin(h.AdminDeleteRecipe))
	mux.Handle("GET /api/admin/categories", admin(h.ListCategories))
	mux.Handle("POST /api/admin/categories", admin(h.CreateCategory))
	mux.Handle("PUT /api/admin/categories/{id}", admin(h.UpdateCategory))
	mux.Handle("DELETE /api/admin/categories/{id}", admin(h.DeleteCategory))
	mux.Handle("GET /api/admin/users", admin(h.ListUsers))
	mux.Handle("PUT /api/admin/users/{id}/status", admin(h.UpdateUserStatus))
	mux.Handle("GET /api/admin/dashboard/stats", admin(h.DashboardStats))
	mux.Handle("POST /api/admin/maintenance/images/sweep", admin(h.SweepImages))

	return mux
}
