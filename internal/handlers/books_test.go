package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func TestCreateBookSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`INSERT INTO books (title, genre, published_year, user_id) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("Dune", "Science", 1965, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	router := gin.New()
	router.POST("/api/books/create", withTestUser(testUser(7, "alice")), CreateBook)

	resp := postJSON(t, router, "/api/books/create", map[string]any{
		"title":          "Dune",
		"genre":          "Science",
		"published_year": 1965,
	})
	expectHTTP200(t, resp.Code)

	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if int(out["id"].(float64)) != 42 {
		t.Fatalf("expected id=42, got %#v", out["id"])
	}
	author, _ := out["author"].(map[string]any)
	if author == nil || author["username"] != "alice" {
		t.Fatalf("expected nested author alice, got %#v", out["author"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateBookValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	nextYear := time.Now().Year() + 1
	cases := []struct {
		name string
		body map[string]any
	}{
		{"empty title", map[string]any{"title": "", "genre": "Fiction", "published_year": 1990}},
		{"unknown genre", map[string]any{"title": "Dune", "genre": "Romance", "published_year": 1990}},
		{"year below range", map[string]any{"title": "Dune", "genre": "Fiction", "published_year": 1799}},
		{"year in the future", map[string]any{"title": "Dune", "genre": "Fiction", "published_year": nextYear}},
	}

	router := gin.New()
	router.POST("/api/books/create", withTestUser(testUser(7, "alice")), CreateBook)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, router, "/api/books/create", tc.body)
			mustStatus(t, resp.Code, http.StatusBadRequest)
		})
	}
}

// 1800 and the current year are inside the accepted range.
func TestCreateBookBoundaryYears(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	currentYear := time.Now().Year()
	for i, year := range []int{1800, currentYear} {
		mock.
			ExpectQuery(regexp.QuoteMeta(`INSERT INTO books (title, genre, published_year, user_id) VALUES ($1, $2, $3, $4) RETURNING id`)).
			WithArgs("Dune", "Science", year, 7).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(i + 1))
	}

	router := gin.New()
	router.POST("/api/books/create", withTestUser(testUser(7, "alice")), CreateBook)

	for _, year := range []int{1800, currentYear} {
		resp := postJSON(t, router, "/api/books/create", map[string]any{
			"title":          "Dune",
			"genre":          "Science",
			"published_year": year,
		})
		expectHTTP200(t, resp.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestSearchBooksWithYearRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(`SELECT b.id, b.title, b.genre, b.published_year`).
		WithArgs("", "", "", 2000, 2010, 10, 0).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "title", "genre", "published_year", "u_id", "username", "first_name", "last_name", "email"}).
				AddRow(1, "Cloud Atlas", "Fiction", 2004, 3, "bob", "Bob", "Jones", "bob@example.com").
				AddRow(2, "The Road", "Fiction", 2006, 3, "bob", "Bob", "Jones", "bob@example.com"),
		)

	router := gin.New()
	router.POST("/api/books/get", withTestUser(testUser(7, "alice")), SearchBooks)

	resp := postJSON(t, router, "/api/books/get", map[string]any{
		"year_from": 2000,
		"year_to":   2010,
	})
	expectHTTP200(t, resp.Code)

	var out []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 books, got %d", len(out))
	}
	author, _ := out[0]["author"].(map[string]any)
	if author == nil || author["username"] != "bob" {
		t.Fatalf("expected author bob from join, got %#v", out[0]["author"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

// An empty filtered result is "not found", never an empty list.
func TestSearchBooksEmptyResultIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(`SELECT b.id, b.title, b.genre, b.published_year`).
		WithArgs("%nowhere%", "", "", 0, 0, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "genre", "published_year", "u_id", "username", "first_name", "last_name", "email"}))

	router := gin.New()
	router.POST("/api/books/get", withTestUser(testUser(7, "alice")), SearchBooks)

	resp := postJSON(t, router, "/api/books/get", map[string]any{"title": "Nowhere"})
	mustStatus(t, resp.Code, http.StatusNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestSearchBooksRejectsInvalidSort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/books/get", withTestUser(testUser(7, "alice")), SearchBooks)

	resp := postJSON(t, router, "/api/books/get", map[string]any{"sort_by": "price"})
	mustStatus(t, resp.Code, http.StatusBadRequest)

	resp = postJSON(t, router, "/api/books/get", map[string]any{"limit": 500})
	mustStatus(t, resp.Code, http.StatusBadRequest)
}

func TestGetMyBooksEmptyIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, title, genre, published_year FROM books WHERE user_id = $1 ORDER BY id ASC`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "genre", "published_year"}))

	router := gin.New()
	router.GET("/api/books/get/my", withTestUser(testUser(7, "alice")), GetMyBooks)

	req := httptest.NewRequest(http.MethodGet, "/api/books/get/my", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestGetMyBooksReturnsOwnedBooks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, title, genre, published_year FROM books WHERE user_id = $1 ORDER BY id ASC`)).
		WithArgs(7).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "title", "genre", "published_year"}).
				AddRow(42, "Dune", "Science", 1965),
		)

	router := gin.New()
	router.GET("/api/books/get/my", withTestUser(testUser(7, "alice")), GetMyBooks)

	req := httptest.NewRequest(http.MethodGet, "/api/books/get/my", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	expectHTTP200(t, resp.Code)

	var out []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if len(out) != 1 || out[0]["title"] != "Dune" {
		t.Fatalf("expected exactly Dune, got %#v", out)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

// The author in the get-by-id response is the requesting user's profile,
// even when the book belongs to someone else.
func TestGetBookByIDReturnsRequesterAsAuthor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, title, genre, published_year, user_id FROM books WHERE id = $1`)).
		WithArgs(42).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "title", "genre", "published_year", "user_id"}).
				AddRow(42, "Dune", "Science", 1965, 99),
		)

	router := gin.New()
	router.GET("/api/books/get/:book_id", withTestUser(testUser(7, "alice")), GetBookByID)

	req := httptest.NewRequest(http.MethodGet, "/api/books/get/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	expectHTTP200(t, resp.Code)

	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	author, _ := out["author"].(map[string]any)
	if author == nil || author["username"] != "alice" {
		t.Fatalf("expected requesting user as author, got %#v", out["author"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestGetBookByIDNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, title, genre, published_year, user_id FROM books WHERE id = $1`)).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "genre", "published_year", "user_id"}))

	router := gin.New()
	router.GET("/api/books/get/:book_id", withTestUser(testUser(7, "alice")), GetBookByID)

	req := httptest.NewRequest(http.MethodGet, "/api/books/get/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdateBookPartialFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, title, genre, published_year, user_id FROM books WHERE id = $1`)).
		WithArgs(42).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "title", "genre", "published_year", "user_id"}).
				AddRow(42, "Dune", "Science", 1965, 7),
		)

	mock.
		ExpectExec(regexp.QuoteMeta(`UPDATE books SET title = $1, genre = $2, published_year = $3 WHERE id = $4`)).
		WithArgs("Dune", "Fiction", 1965, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	router := gin.New()
	router.PUT("/api/books/update/:book_id", withTestUser(testUser(7, "alice")), UpdateBook)

	payload := []byte(`{"genre":"Fiction"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/books/update/42", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	expectHTTP200(t, resp.Code)

	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if out["genre"] != "Fiction" || out["title"] != "Dune" {
		t.Fatalf("expected only genre updated, got %#v", out)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdateBookRequiresOwnership(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, title, genre, published_year, user_id FROM books WHERE id = $1`)).
		WithArgs(42).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "title", "genre", "published_year", "user_id"}).
				AddRow(42, "Dune", "Science", 1965, 99),
		)

	router := gin.New()
	router.PUT("/api/books/update/:book_id", withTestUser(testUser(7, "alice")), UpdateBook)

	req := httptest.NewRequest(http.MethodPut, "/api/books/update/42", bytes.NewReader([]byte(`{"genre":"Fiction"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusUnauthorized)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdateBookRejectsEmptyPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT id, title, genre, published_year, user_id FROM books WHERE id = $1`)).
		WithArgs(42).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "title", "genre", "published_year", "user_id"}).
				AddRow(42, "Dune", "Science", 1965, 7),
		)

	router := gin.New()
	router.PUT("/api/books/update/:book_id", withTestUser(testUser(7, "alice")), UpdateBook)

	req := httptest.NewRequest(http.MethodPut, "/api/books/update/42", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusBadRequest)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestDeleteBookSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM books WHERE id = $1`)).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

	mock.
		ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	router := gin.New()
	router.DELETE("/api/books/delete/:book_id", withTestUser(testUser(7, "alice")), DeleteBook)

	req := httptest.NewRequest(http.MethodDelete, "/api/books/delete/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusNoContent)
	if resp.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", resp.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestDeleteBookNotOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM books WHERE id = $1`)).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(99))

	router := gin.New()
	router.DELETE("/api/books/delete/:book_id", withTestUser(testUser(7, "alice")), DeleteBook)

	req := httptest.NewRequest(http.MethodDelete, "/api/books/delete/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusUnauthorized)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestDeleteBookNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM books WHERE id = $1`)).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	router := gin.New()
	router.DELETE("/api/books/delete/:book_id", withTestUser(testUser(7, "alice")), DeleteBook)

	req := httptest.NewRequest(http.MethodDelete, "/api/books/delete/42", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}
