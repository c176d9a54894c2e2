package database

import (
	"log"
)

// CreateTables creates all required tables in the database
func CreateTables() {
	createUsersTable()
	createBooksTable()
}

// createUsersTable creates the users table. Username and email carry unique
// constraints so concurrent registrations with the same identity resolve
// deterministically at insert time.
func createUsersTable() {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		hashed_password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := DB.Exec(query)
	if err != nil {
		log.Fatal("Failed to create users table:", err)
	}

	log.Println("Users table ready")
}

func createBooksTable() {
	query := `
	CREATE TABLE IF NOT EXISTS books (
		id SERIAL PRIMARY KEY,
		title VARCHAR(500) NOT NULL,
		genre VARCHAR(100) NOT NULL,
		published_year INTEGER NOT NULL,
		user_id INTEGER NOT NULL REFERENCES users(id)
	);
	`

	_, err := DB.Exec(query)
	if err != nil {
		log.Fatal("Failed to create books table:", err)
	}

	ensureBooksSchema()
	log.Println("Books table ready")
}

func ensureBooksSchema() {
	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS books_user_id_idx ON books(user_id)`); err != nil {
		log.Fatal("Failed to ensure books owner index:", err)
	}

	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS books_title_lower_idx ON books(lower(title))`); err != nil {
		log.Fatal("Failed to ensure books title index:", err)
	}
}
