package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/snap-point/social-api/controllers"
)

// SetupPublicUserRoutes registers reads that work with or without a token.
func SetupPublicUserRoutes(public *gin.RouterGroup, userController *controllers.UserController, interactionController *controllers.InteractionController) {
	public.GET("/profile/:username", userController.GetUserProfile)
	public.GET("/users/search", userController.SearchUsers)

	profiles := public.Group("/profiles")
	{
		profiles.GET("/:username/followers", interactionController.ProfileFollowers)
		profiles.GET("/:username/following", interactionController.ProfileFollowing)
	}
}

func SetupUserRoutes(protected *gin.RouterGroup, userController *controllers.UserController) {
	protected.GET("/profile", userController.GetMyProfile)
	protected.PATCH("/profile", userController.UpdateProfile)
	protected.GET("/suggestions", userController.GetSuggestedUsers)
}
