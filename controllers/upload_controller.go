package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/social-api/services"
	"github.com/snap-point/social-api/utils"
)

// UploadController accepts avatar images as multipart uploads.
type UploadController struct {
	Accounts *services.AccountService
	Views    *services.ProfileViewBuilder
}

func NewUploadController(accounts *services.AccountService, views *services.ProfileViewBuilder) *UploadController {
	return &UploadController{Accounts: accounts, Views: views}
}

// UploadAvatar godoc
// @Summary Replace the caller's avatar
// @Tags uploads
// @Accept multipart/form-data
// @Param avatar formData file true "Image, at most 5 MB"
// @Success 200 {object} services.ProfileView
// @Router /profile/avatar [put]
func (uc *UploadController) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxAvatarSize+1<<20)

	header, err := c.FormFile("avatar")
	if err != nil {
		badRequest(c, "avatar file is required")
		return
	}
	if header.Size > services.MaxAvatarSize {
		badRequest(c, "avatar must be at most 5 MB")
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	p, err := uc.Accounts.ReplaceAvatar(c.Request.Context(), utils.GetUserID(c), file)
	if err != nil {
		respondError(c, err)
		return
	}

	view := uc.Views.Render(c.Request.Context(), p, viewer(c), utils.RequestOrigin(c))
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: view, Message: "Avatar updated successfully"})
}
