package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/sanarkk/book-management-system-api/internal/config"
)

var DB *sql.DB

// InitDB opens the connection pool described by the configuration.
func InitDB(cfg config.DatabaseConfig) {
	var err error

	log.Printf("Connecting to database: host=%s port=%s user=%s db=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Name, cfg.SSLMode)

	DB, err = sql.Open("postgres", cfg.ConnString())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB.SetMaxOpenConns(cfg.MaxOpenConns)
	DB.SetMaxIdleConns(cfg.MaxIdleConns)
	DB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleMinutes) * time.Minute)
	DB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err = DB.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Connected to database successfully")
}

// CloseDB closes the database connection
func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}
