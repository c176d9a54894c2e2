package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/sanarkk/book-management-system-api/internal/auth"
	"github.com/sanarkk/book-management-system-api/internal/database"
	"github.com/sanarkk/book-management-system-api/internal/models"
)

const uniqueViolationCode = "23505"

type registerRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles user registration. Username duplicates are pre-checked;
// email duplicates are caught by the unique constraint at insert time so a
// racing registration still resolves to exactly one winner.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username, first name, last name, email, and password are required"})
		return
	}

	db := database.DB

	var existingID int
	err := db.QueryRow(`SELECT id FROM users WHERE username = $1`, req.Username).Scan(&existingID)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This username is already in use"})
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("Error checking username %q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error hashing password"})
		return
	}

	user := models.User{
		Username:       req.Username,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		HashedPassword: hashedPassword,
	}

	err = db.QueryRow(
		`INSERT INTO users (username, first_name, last_name, email, hashed_password)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		user.Username, user.FirstName, user.LastName, user.Email, user.HashedPassword,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			c.JSON(http.StatusBadRequest, gin.H{"error": "This email is already in use"})
			return
		}
		log.Printf("Error inserting user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

// Login handles user login. Unknown usernames and wrong passwords return
// the same generic message so usernames cannot be enumerated.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	db := database.DB

	var user models.User
	err := db.QueryRow(
		`SELECT id, username, first_name, last_name, email, hashed_password FROM users WHERE username = $1`,
		req.Username,
	).Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.Email, &user.HashedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		log.Printf("Error querying user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error logging in"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.HashedPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := tokenManager.Generate(user.Username)
	if err != nil {
		log.Printf("Error generating token for %q: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}
