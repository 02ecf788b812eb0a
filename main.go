package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"yamdb-api/catalog"
	"yamdb-api/common"
	"yamdb-api/reviews"
	"yamdb-api/users"
)

func Migrate(db *gorm.DB) {
	// Migrate domain models
	users.AutoMigrate()
	catalog.AutoMigrate()
	reviews.AutoMigrate()

	// Migrate request metrics table
	common.AutoMigrateMetrics(db)
}

// NewRouter assembles the full API surface; tests drive it directly
func NewRouter() *gin.Engine {
	r := gin.Default()

	origins := []string{"http://localhost:3000"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(common.MetricsMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	users.RegisterAuthRoutes(v1.Group("/auth"))
	users.RegisterRoutes(v1.Group("/users"))
	catalog.RegisterRoutes(v1)
	reviews.RegisterRoutes(v1)

	return r
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}

	if err := users.InitJWTSecret(); err != nil {
		log.Fatal(err)
	}

	// Initialize database
	db := common.Init()
	Migrate(db)

	// Ensure database connection is closed on exit
	sqlDB, err := db.DB()
	if err != nil {
		log.Println("Failed to get sql.DB:", err)
	} else {
		defer sqlDB.Close()
	}

	r := NewRouter()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
