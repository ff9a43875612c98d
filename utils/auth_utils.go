package utils

import (
	"github.com/gin-gonic/gin"
)

type UserClaims struct {
	UserID uint `json:"user_id"`
}

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(c *gin.Context) *UserClaims {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	if userClaims, ok := user.(*UserClaims); ok {
		return userClaims
	}
	return nil
}

// GetUserID returns the authenticated user id, or 0 for anonymous requests.
func GetUserID(c *gin.Context) uint {
	if user := GetUser(c); user != nil {
		return user.UserID
	}
	return 0
}
