package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/services"
	"github.com/snap-point/social-api/utils"
)

// InteractionController exposes the follow graph.
type InteractionController struct {
	Relations *services.RelationshipService
	Profiles  *services.ProfileService
	Views     *services.ProfileViewBuilder
}

func NewInteractionController(relations *services.RelationshipService, profiles *services.ProfileService, views *services.ProfileViewBuilder) *InteractionController {
	return &InteractionController{Relations: relations, Profiles: profiles, Views: views}
}

type FollowRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Action string `json:"action" binding:"required,oneof=follow unfollow"`
}

// Follow godoc
// @Summary Follow or unfollow a user
// @Tags interactions
// @Accept json
// @Produce json
// @Param body body FollowRequest true "Target user and action"
// @Success 200 {object} services.FollowResult
// @Router /follow [post]
func (ic *InteractionController) Follow(c *gin.Context) {
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := ic.Relations.Apply(c.Request.Context(), utils.GetUserID(c), req.UserID, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// FollowUser godoc
// @Summary Follow a user
// @Tags interactions
// @Param userId path string true "User ID to follow"
// @Success 200 {object} services.FollowResult
// @Router /users/{userId}/follow [post]
func (ic *InteractionController) FollowUser(c *gin.Context) {
	target, ok := userIDParam(c)
	if !ok {
		return
	}

	res, err := ic.Relations.FollowUser(c.Request.Context(), utils.GetUserID(c), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UnfollowUser godoc
// @Summary Unfollow a user
// @Tags interactions
// @Param userId path string true "User ID to unfollow"
// @Success 200 {object} services.FollowResult
// @Router /users/{userId}/follow [delete]
func (ic *InteractionController) UnfollowUser(c *gin.Context) {
	target, ok := userIDParam(c)
	if !ok {
		return
	}

	res, err := ic.Relations.UnfollowUser(c.Request.Context(), utils.GetUserID(c), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ic *InteractionController) MyFollowers(c *gin.Context) {
	ic.listMine(c, ic.Relations.ListFollowers)
}

func (ic *InteractionController) MyFollowing(c *gin.Context) {
	ic.listMine(c, ic.Relations.ListFollowing)
}

func (ic *InteractionController) ProfileFollowers(c *gin.Context) {
	ic.listFor(c, ic.Relations.ListFollowers)
}

func (ic *InteractionController) ProfileFollowing(c *gin.Context) {
	ic.listFor(c, ic.Relations.ListFollowing)
}

type pageLister = func(ctx context.Context, profileID uint, q services.ListQuery) (*services.Page[models.Profile], error)

func (ic *InteractionController) listMine(c *gin.Context, list pageLister) {
	p, err := ic.Profiles.Current(c.Request.Context(), utils.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ic.respondPage(c, p.ID, list)
}

func (ic *InteractionController) listFor(c *gin.Context, list pageLister) {
	p, err := ic.Profiles.Resolve(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	ic.respondPage(c, p.ID, list)
}

func (ic *InteractionController) respondPage(c *gin.Context, profileID uint, list pageLister) {
	page, err := list(c.Request.Context(), profileID, listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	views := ic.Views.RenderPage(c.Request.Context(), page, viewer(c), utils.RequestOrigin(c))
	c.JSON(http.StatusOK, StandardResponse{
		Success:    true,
		Data:       views.Items,
		Pagination: paginationMeta(views),
	})
}

func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid user id")
		return 0, false
	}
	return uint(id), true
}
