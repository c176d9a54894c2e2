package middleware

import (
	"database/sql"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sanarkk/book-management-system-api/internal/auth"
	"github.com/sanarkk/book-management-system-api/internal/database"
	"github.com/sanarkk/book-management-system-api/internal/models"
)

// CurrentUserContextKey is where AuthMiddleware stores the authenticated user.
const CurrentUserContextKey = "current_user"

const invalidCredentialsMessage = "Invalid authentication credentials"

// AuthMiddleware checks for a valid bearer token and loads the user it
// identifies. The token subject must match an existing username.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": invalidCredentialsMessage,
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": invalidCredentialsMessage,
			})
			c.Abort()
			return
		}

		username, err := tokens.ResolveSubject(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": invalidCredentialsMessage,
			})
			c.Abort()
			return
		}

		var user models.User
		err = database.DB.QueryRow(
			`SELECT id, username, first_name, last_name, email FROM users WHERE username = $1`,
			username,
		).Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.Email)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": invalidCredentialsMessage,
				})
				c.Abort()
				return
			}
			log.Printf("Error loading user for token subject %q: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error resolving current user",
			})
			c.Abort()
			return
		}

		c.Set(CurrentUserContextKey, &user)
		c.Next()
	}
}
