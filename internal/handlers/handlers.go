package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanarkk/book-management-system-api/internal/auth"
	"github.com/sanarkk/book-management-system-api/internal/middleware"
	"github.com/sanarkk/book-management-system-api/internal/models"
)

var tokenManager *auth.TokenManager

// SetTokenManager wires the token manager constructed in main into the
// handlers package.
func SetTokenManager(tm *auth.TokenManager) {
	tokenManager = tm
}

// currentUser returns the user stored by the auth middleware. When the user
// is missing the 401 response has already been written here.
func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(middleware.CurrentUserContextKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}

	user, ok := value.(*models.User)
	if !ok || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid current user"})
		return nil, false
	}

	return user, true
}
