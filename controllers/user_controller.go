package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/services"
	"github.com/snap-point/social-api/utils"
)

type UserController struct {
	Profiles    *services.ProfileService
	Suggestions *services.SuggestionService
	Accounts    *services.AccountService
	Views       *services.ProfileViewBuilder
}

func NewUserController(profiles *services.ProfileService, suggestions *services.SuggestionService, accounts *services.AccountService, views *services.ProfileViewBuilder) *UserController {
	return &UserController{
		Profiles:    profiles,
		Suggestions: suggestions,
		Accounts:    accounts,
		Views:       views,
	}
}

// GetUserProfile godoc
// @Summary Public profile by username
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} services.ProfileView
// @Router /profile/{username} [get]
func (uc *UserController) GetUserProfile(c *gin.Context) {
	view, err := uc.Profiles.View(c.Request.Context(), c.Param("username"), viewer(c), utils.RequestOrigin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: view})
}

func (uc *UserController) GetMyProfile(c *gin.Context) {
	p, err := uc.Profiles.Current(c.Request.Context(), utils.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	view := uc.Views.Render(c.Request.Context(), p, viewer(c), utils.RequestOrigin(c))
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: view})
}

type UpdateProfileRequest struct {
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
	Website  *string `json:"website"`
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := uc.Accounts.UpdateProfile(c.Request.Context(), utils.GetUserID(c), models.ProfileUpdate{
		Bio:      req.Bio,
		Location: req.Location,
		Website:  req.Website,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	view := uc.Views.Render(c.Request.Context(), p, viewer(c), utils.RequestOrigin(c))
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: view, Message: "Profile updated successfully"})
}

// SearchUsers matches usernames; excludeFollowed drops profiles the caller
// already follows.
func (uc *UserController) SearchUsers(c *gin.Context) {
	excludeFollowed, _ := strconv.ParseBool(c.DefaultQuery("excludeFollowed", "true"))

	profiles, err := uc.Profiles.Search(c.Request.Context(), c.Query("q"), viewer(c), excludeFollowed)
	if err != nil {
		respondError(c, err)
		return
	}
	views := uc.Views.RenderAll(c.Request.Context(), profiles, viewer(c), utils.RequestOrigin(c))
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: views})
}

func (uc *UserController) GetSuggestedUsers(c *gin.Context) {
	limit := utils.QueryInt(c, "limit", services.DefaultSuggestionLimit)

	profiles := uc.Suggestions.SuggestForUser(c.Request.Context(), utils.GetUserID(c), limit)
	views := uc.Views.RenderAll(c.Request.Context(), profiles, viewer(c), utils.RequestOrigin(c))
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: views})
}
