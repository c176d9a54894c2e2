package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sanarkk/book-management-system-api/internal/database"
	"github.com/sanarkk/book-management-system-api/internal/models"
)

type createBookRequest struct {
	Title         string `json:"title"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"published_year"`
}

type updateBookRequest struct {
	Title         *string `json:"title"`
	Genre         *string `json:"genre"`
	PublishedYear *int    `json:"published_year"`
}

// validateBookPayload applies the creation rules shared by create, update
// and bulk import.
func validateBookPayload(title, genre string, publishedYear int) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("Title must not be empty")
	}
	if !models.IsValidGenre(genre) {
		return fmt.Errorf("Genre must be one of: %s", strings.Join(models.Genres(), ", "))
	}
	if !models.IsValidPublishedYear(publishedYear) {
		return fmt.Errorf("Published year must be between %d and %d", models.MinPublishedYear, time.Now().Year())
	}
	return nil
}

// CreateBook inserts a new book owned by the current user.
func CreateBook(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := validateBookPayload(req.Title, req.Genre, req.PublishedYear); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book := models.Book{
		Title:         req.Title,
		Genre:         req.Genre,
		PublishedYear: req.PublishedYear,
		UserID:        user.ID,
	}

	err := database.DB.QueryRow(
		`INSERT INTO books (title, genre, published_year, user_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		book.Title, book.Genre, book.PublishedYear, book.UserID,
	).Scan(&book.ID)
	if err != nil {
		log.Printf("Error inserting book: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating book"})
		return
	}

	author := user.Public()
	book.Author = &author
	c.JSON(http.StatusOK, book)
}

// SearchBooks lists books across all owners, filtered, sorted and paginated.
// An empty page is reported as not found rather than an empty success.
func SearchBooks(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var filter bookFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	params, err := buildListParams(filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := fmt.Sprintf(`
		SELECT b.id, b.title, b.genre, b.published_year,
		       u.id, u.username, u.first_name, u.last_name, u.email
		FROM books b
		JOIN users u ON u.id = b.user_id
		WHERE ($1 = '' OR lower(b.title) LIKE $1)
		  AND ($2 = '' OR lower(b.genre) LIKE $2)
		  AND ($3 = '' OR lower(u.username) LIKE $3 OR lower(u.first_name) LIKE $3 OR lower(u.last_name) LIKE $3)
		  AND ($4 = 0 OR b.published_year >= $4)
		  AND ($5 = 0 OR b.published_year <= $5)
		ORDER BY %s
		LIMIT $6 OFFSET $7
	`, params.OrderBy)

	rows, err := database.DB.Query(
		query,
		params.TitlePattern,
		params.GenrePattern,
		params.AuthorPattern,
		params.YearFrom,
		params.YearTo,
		params.Limit,
		params.Offset,
	)
	if err != nil {
		log.Printf("Error searching books: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving books"})
		return
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		var author models.PublicUser

		err := rows.Scan(
			&book.ID, &book.Title, &book.Genre, &book.PublishedYear,
			&author.ID, &author.Username, &author.FirstName, &author.LastName, &author.Email,
		)
		if err != nil {
			log.Printf("Error scanning book: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning book"})
			return
		}

		book.UserID = author.ID
		book.Author = &author
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating books: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving books"})
		return
	}

	if len(books) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No books found matching the given filters"})
		return
	}

	c.JSON(http.StatusOK, books)
}

// GetMyBooks lists every book owned by the current user.
func GetMyBooks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	rows, err := database.DB.Query(
		`SELECT id, title, genre, published_year FROM books WHERE user_id = $1 ORDER BY id ASC`,
		user.ID,
	)
	if err != nil {
		log.Printf("Error retrieving books for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving books"})
		return
	}
	defer rows.Close()

	author := user.Public()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.Genre, &book.PublishedYear); err != nil {
			log.Printf("Error scanning book: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning book"})
			return
		}
		book.UserID = user.ID
		book.Author = &author
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating books: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving books"})
		return
	}

	if len(books) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No books found"})
		return
	}

	c.JSON(http.StatusOK, books)
}

// GetBookByID returns a single book. The author in the response is the
// requesting user's own profile, not necessarily the book's owner.
func GetBookByID(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	bookID, err := strconv.Atoi(strings.TrimSpace(c.Param("book_id")))
	if err != nil || bookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID"})
		return
	}

	book, err := fetchBookByID(database.DB, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		log.Printf("Error retrieving book %d: %v", bookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving book"})
		return
	}

	author := user.Public()
	book.Author = &author
	c.JSON(http.StatusOK, book)
}

// UpdateBook applies the supplied fields to a book the current user owns.
func UpdateBook(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	bookID, err := strconv.Atoi(strings.TrimSpace(c.Param("book_id")))
	if err != nil || bookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID"})
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	book, err := fetchBookByID(database.DB, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		log.Printf("Error retrieving book %d: %v", bookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving book"})
		return
	}

	if book.UserID != user.ID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You don't have permission to modify this book"})
		return
	}

	if req.Title == nil && req.Genre == nil && req.PublishedYear == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field must be supplied"})
		return
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Genre != nil {
		book.Genre = *req.Genre
	}
	if req.PublishedYear != nil {
		book.PublishedYear = *req.PublishedYear
	}

	if err := validateBookPayload(book.Title, book.Genre, book.PublishedYear); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err = database.DB.Exec(
		`UPDATE books SET title = $1, genre = $2, published_year = $3 WHERE id = $4`,
		book.Title, book.Genre, book.PublishedYear, book.ID,
	)
	if err != nil {
		log.Printf("Error updating book %d: %v", bookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating book"})
		return
	}

	author := user.Public()
	book.Author = &author
	c.JSON(http.StatusOK, book)
}

// DeleteBook permanently removes a book the current user owns.
func DeleteBook(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	bookID, err := strconv.Atoi(strings.TrimSpace(c.Param("book_id")))
	if err != nil || bookID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID"})
		return
	}

	var ownerID int
	err = database.DB.QueryRow(`SELECT user_id FROM books WHERE id = $1`, bookID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		log.Printf("Error retrieving book %d: %v", bookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving book"})
		return
	}

	if ownerID != user.ID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You don't have permission to delete this book"})
		return
	}

	if _, err := database.DB.Exec(`DELETE FROM books WHERE id = $1`, bookID); err != nil {
		log.Printf("Error deleting book %d: %v", bookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting book"})
		return
	}

	c.Status(http.StatusNoContent)
}

func fetchBookByID(db *sql.DB, bookID int) (models.Book, error) {
	var book models.Book
	err := db.QueryRow(
		`SELECT id, title, genre, published_year, user_id FROM books WHERE id = $1`,
		bookID,
	).Scan(&book.ID, &book.Title, &book.Genre, &book.PublishedYear, &book.UserID)
	return book, err
}
