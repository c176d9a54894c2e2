package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sanarkk/book-management-system-api/internal/auth"
	"github.com/sanarkk/book-management-system-api/internal/config"
	"github.com/sanarkk/book-management-system-api/internal/database"
	"github.com/sanarkk/book-management-system-api/internal/handlers"
	"github.com/sanarkk/book-management-system-api/internal/middleware"
	"github.com/sanarkk/book-management-system-api/internal/monitoring"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	database.InitDB(cfg.Database)
	defer database.CloseDB()
	database.CreateTables()

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		log.Fatal("Invalid auth configuration:", err)
	}
	handlers.SetTokenManager(tokens)

	monitoringService := monitoring.NewService(time.Now())
	handlers.SetMonitoring(monitoringService, cfg.MonitoringToken)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(monitoring.RequestMetricsMiddleware())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/api/status", handlers.Status)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", handlers.Register)
		authRoutes.POST("/login", handlers.Login)
	}

	books := router.Group("/api/books", middleware.AuthMiddleware(tokens))
	{
		books.POST("/create", handlers.CreateBook)
		books.POST("/get", handlers.SearchBooks)
		books.GET("/get/my", handlers.GetMyBooks)
		books.GET("/get/:book_id", handlers.GetBookByID)
		books.PUT("/update/:book_id", handlers.UpdateBook)
		books.DELETE("/delete/:book_id", handlers.DeleteBook)
		books.POST("/import", handlers.ImportBooks)
	}

	monitor := router.Group("/monitor")
	{
		monitor.GET("/status", handlers.MonitorStatus)
		monitor.GET("/snapshot", handlers.MonitorSnapshot)
	}

	log.Printf("Book Management API starting on %s", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
