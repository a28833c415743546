package routes

import (
	"scholarxp-api/controllers"
	"scholarxp-api/middleware"
	"scholarxp-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/register", controllers.Register)
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "ScholarXP API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Submissions
			submissions := protected.Group("/submissions")
			{
				submissions.GET("", controllers.ListSubmissions)
				submissions.GET("/:id", controllers.GetSubmission)
				submissions.POST("", controllers.CreateSubmission)
			}

			// Leaderboards and ranks
			protected.GET("/leaderboard", controllers.GetLeaderboard)
			protected.GET("/leaderboard/weekly", controllers.GetWeeklyLeaderboard)
			protected.GET("/ranks", controllers.GetRankTable)

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Peer review (reviewers and admins)
			reviews := protected.Group("/reviews")
			reviews.Use(middleware.RequireRole(models.RoleReviewer, models.RoleAdmin))
			{
				reviews.GET("/assignments", controllers.GetMyAssignments)
				reviews.POST("/assignments/:id/start", controllers.StartAssignment)
				reviews.POST("", controllers.SubmitReview)
			}

			// Content flags (reviewers and admins)
			protected.POST("/flags", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.CreateFlag)

			// Admin endpoints
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.POST("/assignments/auto", controllers.AutoAssignReviewers)

				admin.POST("/submissions/:id/manual-reshuffle", controllers.ManualReshuffle)
				admin.POST("/submissions/bulk-reshuffle", controllers.BulkReshuffle)
				admin.POST("/submissions/:id/consensus-debug", controllers.ConsensusDebug)
				admin.POST("/submissions/:id/ai-evaluation", controllers.AdminRecordAiEvaluation)
				admin.PUT("/submissions/:id/xp", controllers.OverrideSubmissionXp)
				admin.DELETE("/submissions/:id", controllers.AdminDeleteSubmission)

				admin.GET("/flags", controllers.ListFlags)
				admin.PATCH("/moderation", controllers.ModerateFlags)

				admin.GET("/reliability-simulator", controllers.ReliabilitySimulator)
				admin.GET("/users/:id/ledger", controllers.GetUserLedger)

				admin.GET("/legacy", controllers.ListLegacyAccounts)
				admin.POST("/legacy/match", controllers.MatchLegacyHandle)
				admin.POST("/legacy/merge", controllers.MergeLegacyAccount)
			}
		}
	}
}
