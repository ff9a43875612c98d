package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/social-api/services"
)

type ValidationController struct {
	Accounts *services.AccountService
}

func NewValidationController(accounts *services.AccountService) *ValidationController {
	return &ValidationController{Accounts: accounts}
}

func (vc *ValidationController) ValidateUsername(c *gin.Context) {
	username := c.Query("username")

	available, err := vc.Accounts.UsernameAvailable(c.Request.Context(), username)
	if errors.Is(err, services.ErrValidation) {
		c.JSON(http.StatusOK, gin.H{"available": false, "valid": false, "error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available, "valid": true})
}
