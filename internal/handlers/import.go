package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/sanarkk/book-management-system-api/internal/database"
	"github.com/sanarkk/book-management-system-api/internal/models"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeJSON = "application/json"
)

// ImportBooks ingests a CSV or JSON file of books. The import is
// all-or-nothing: the first invalid row aborts without committing anything.
func ImportBooks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading uploaded file"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is empty"})
		return
	}

	contentType, ok := resolveImportContentType(header.Header.Get("Content-Type"), data)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Unsupported file type. Allowed: %s, %s", contentTypeCSV, contentTypeJSON),
		})
		return
	}

	var rows []models.BookInput
	switch contentType {
	case contentTypeCSV:
		rows, err = parseCSVBooks(data)
	case contentTypeJSON:
		rows, err = parseJSONBooks(data)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No book rows found in file"})
		return
	}

	for i, row := range rows {
		if err := validateBookPayload(row.Title, row.Genre, row.PublishedYear); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Row %d: %s", i+1, err.Error())})
			return
		}
	}

	inserted, err := insertBooksInTx(rows, user.ID)
	if err != nil {
		log.Printf("Error importing books for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error importing books"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d books imported successfully.", inserted),
	})
}

// insertBooksInTx writes every parsed row in a single transaction so a
// failure commits nothing.
func insertBooksInTx(rows []models.BookInput, ownerID int) (int, error) {
	tx, err := database.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, row := range rows {
		_, err := tx.Exec(
			`INSERT INTO books (title, genre, published_year, user_id) VALUES ($1, $2, $3, $4)`,
			row.Title, row.Genre, row.PublishedYear, ownerID,
		)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return len(rows), nil
}

// resolveImportContentType normalizes the declared content type of the
// uploaded part and falls back to content sniffing when the part carries no
// usable declaration.
func resolveImportContentType(declared string, data []byte) (string, bool) {
	normalized := normalizeContentType(declared)
	switch normalized {
	case contentTypeCSV, contentTypeJSON:
		return normalized, true
	case "", "application/octet-stream":
		detected := normalizeContentType(mimetype.Detect(data).String())
		if detected == contentTypeCSV || detected == contentTypeJSON {
			return detected, true
		}
	}
	return "", false
}

func normalizeContentType(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if separator := strings.Index(normalized, ";"); separator >= 0 {
		normalized = strings.TrimSpace(normalized[:separator])
	}
	return normalized
}

type jsonBookRow struct {
	Title         *string `json:"title"`
	Genre         *string `json:"genre"`
	PublishedYear *int    `json:"published_year"`
}

func parseJSONBooks(data []byte) ([]models.BookInput, error) {
	var rawRows []jsonBookRow
	if err := json.Unmarshal(data, &rawRows); err != nil {
		return nil, errors.New("Malformed JSON: expected an array of book objects")
	}

	rows := make([]models.BookInput, 0, len(rawRows))
	for i, raw := range rawRows {
		if raw.Title == nil || raw.Genre == nil || raw.PublishedYear == nil {
			return nil, fmt.Errorf("Row %d: title, genre and published_year are required", i+1)
		}
		rows = append(rows, models.BookInput{
			Title:         *raw.Title,
			Genre:         *raw.Genre,
			PublishedYear: *raw.PublishedYear,
		})
	}

	return rows, nil
}

func parseCSVBooks(data []byte) ([]models.BookInput, error) {
	reader := csv.NewReader(bytes.NewReader(data))

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New("Malformed CSV: missing header row")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	titleIdx, hasTitle := columns["title"]
	genreIdx, hasGenre := columns["genre"]
	yearIdx, hasYear := columns["published_year"]
	if !hasTitle || !hasGenre || !hasYear {
		return nil, errors.New("Malformed CSV: title, genre and published_year columns are required")
	}

	var rows []models.BookInput
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Malformed CSV at line %d", line)
		}

		year, err := strconv.Atoi(strings.TrimSpace(record[yearIdx]))
		if err != nil {
			return nil, fmt.Errorf("Malformed CSV at line %d: published_year must be an integer", line)
		}

		rows = append(rows, models.BookInput{
			Title:         strings.TrimSpace(record[titleIdx]),
			Genre:         strings.TrimSpace(record[genreIdx]),
			PublishedYear: year,
		})
	}

	return rows, nil
}
