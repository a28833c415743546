package main

import (
	"context"
	"log"
	"os"

	"scholarxp-api/config"
	"scholarxp-api/controllers"
	"scholarxp-api/middleware"
	"scholarxp-api/models"
	"scholarxp-api/monitor"
	"scholarxp-api/routes"
	"scholarxp-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize logging (stdout + logs/scholarxp-api.log)
	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database and redis
	config.InitDB()
	config.InitRedis()

	// Wire service graph
	controllers.InitServices()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.LoggerWithWriter(config.LogWriter))

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	// Ops routes (register before the API catch-all)
	monitor.RegisterLogsRoute(router)
	monitor.RegisterMonitorPage(router)
	monitor.RegisterStatusRoute(router, controllers.Cache())

	// Setup routes
	routes.SetupRoutes(router)

	// Mirror realtime notification events into the ops log when redis is
	// configured, with a polling reconciliation pass for dropped events.
	if config.Redis != nil {
		sub := services.NewSubscriber(config.Redis)
		go func() {
			err := sub.Run(context.Background(),
				func(event services.NotificationEvent) {
					log.Printf("[Notify] user=%d type=%s %s", event.UserID, event.Type, event.Title)
				},
				func(ctx context.Context) {
					var pending int64
					if err := config.DB.WithContext(ctx).Model(&models.Notification{}).
						Where("is_read = ?", false).Count(&pending).Error; err != nil {
						log.Printf("[Notify] reconcile failed: %v", err)
						return
					}
					log.Printf("[Notify] reconcile: %d unread notifications", pending)
				})
			if err != nil {
				log.Printf("[Notify] subscriber stopped: %v", err)
			}
		}()
	}

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 ScholarXP API starting on port %s", port)
	log.Printf("📊 Database connected successfully")
	log.Printf("🔒 Security middlewares enabled")
	log.Printf("🌐 CORS configured for allowed origins")

	if ginMode == "release" {
		log.Printf("🏭 Running in production mode")
	} else {
		log.Printf("🔧 Running in development mode")
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}
