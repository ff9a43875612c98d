package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/snap-point/social-api/controllers"
	"github.com/snap-point/social-api/middleware"
	"github.com/snap-point/social-api/services"
)

type Deps struct {
	Relations   *services.RelationshipService
	Suggestions *services.SuggestionService
	Profiles    *services.ProfileService
	Views       *services.ProfileViewBuilder
	Accounts    *services.AccountService

	JWTSecret string
	// MediaDir is served under /media when avatars live on local disk.
	MediaDir string
	Registry *prometheus.Registry
}

func SetupRoutes(r *gin.Engine, d Deps) {
	authController := controllers.NewAuthController(d.Accounts)
	interactionController := controllers.NewInteractionController(d.Relations, d.Profiles, d.Views)
	userController := controllers.NewUserController(d.Profiles, d.Suggestions, d.Accounts, d.Views)
	uploadController := controllers.NewUploadController(d.Accounts, d.Views)
	validationController := controllers.NewValidationController(d.Accounts)

	if d.MediaDir != "" {
		r.Static("/media", d.MediaDir)
	}
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// Public routes
	public := r.Group("/api")
	public.Use(middleware.OptionalAuthMiddleware(d.JWTSecret))
	{
		public.POST("/register", authController.Register)
		public.POST("/login", authController.Login)
		public.POST("/refresh-token", authController.RefreshToken)

		SetupValidationRoutes(public, validationController)
		SetupPublicUserRoutes(public, userController, interactionController)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(d.JWTSecret))
	{
		protected.POST("/logout", authController.Logout)
		protected.POST("/change-password", authController.ChangePassword)
		protected.POST("/delete-account", authController.DeleteAccount)

		SetupUserRoutes(protected, userController)
		SetupInteractionRoutes(protected, interactionController)
		SetupUploadRoutes(protected, uploadController)
	}
}
