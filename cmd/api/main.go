package main

import (
	"log"
	"os"
	"time"

	"github.com/chachabrian/carpool-backend/internal/database"
	"github.com/chachabrian/carpool-backend/internal/handlers"
	"github.com/chachabrian/carpool-backend/internal/middleware"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis (optional - catalog reads fall back to the database)
	if err := services.InitRedis(); err != nil {
		log.Printf("Redis initialization warning: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored uploads (no-op when S3 is configured)
	r.Static("/uploads", "/app/uploads")

	// Public routes
	r.GET("/", handlers.Landing())
	r.GET("/register", handlers.RegisterForm())
	r.POST("/register", handlers.Register(db))
	r.GET("/login", handlers.LoginForm())
	r.POST("/login", handlers.Login(db))
	r.GET("/logout", handlers.Logout())
	r.GET("/rides", handlers.GetOpenRides(db))

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/offer", handlers.OfferForm())
		protected.POST("/offer", handlers.OfferRide(db))
		protected.POST("/book_ride/:rideId", handlers.BookRide(db, hub))
		protected.GET("/dashboard", handlers.Dashboard(db))
		protected.GET("/dashboard/bookings", handlers.DashboardBookings(db))
		protected.GET("/my_bookings", handlers.MyBookings(db))
		protected.POST("/confirm_booking/:rideNum/:userId", handlers.ConfirmBooking(db, hub))
		protected.POST("/cancel_booking/:rideNum/:userId", handlers.CancelBooking(db, hub))
		protected.GET("/profile", handlers.GetProfile(db))
		protected.POST("/profile/avatar", handlers.UploadAvatar(db))
		protected.GET("/ws", handlers.WebSocketHandler(hub))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
