package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/snap-point/social-api/controllers"
)

func SetupInteractionRoutes(protected *gin.RouterGroup, interactionController *controllers.InteractionController) {
	protected.POST("/follow", interactionController.Follow)
	protected.GET("/followers", interactionController.MyFollowers)
	protected.GET("/following", interactionController.MyFollowing)

	users := protected.Group("/users")
	{
		users.POST("/:userId/follow", interactionController.FollowUser)
		users.DELETE("/:userId/follow", interactionController.UnfollowUser)
	}
}
