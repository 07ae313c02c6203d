package routes

import (
	"journal-management-api/controllers"
	"journal-management-api/middleware"
	"journal-management-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			// Payment processor callback; signature checking happens upstream.
			public.POST("/payments/webhook", controllers.PaymentWebhook)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Journal Management API is running",
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

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/counter", controllers.GetNotificationCounter)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Manuscripts
			manuscripts := protected.Group("/manuscripts")
			{
				manuscripts.GET("/mine", controllers.GetMyManuscripts)
				manuscripts.GET("/:id", controllers.GetManuscript)
				manuscripts.GET("/:id/history", controllers.GetManuscriptHistory)
				manuscripts.GET("/:id/activity", controllers.GetManuscriptActivity)
				manuscripts.GET("/:id/reviews", controllers.GetManuscriptReviews)

				// Authors draft, edit and pay
				manuscripts.POST("", middleware.RequireRole(models.RoleAuthor, models.RoleAdmin), controllers.CreateManuscript)
				manuscripts.PUT("/:id", middleware.RequireRole(models.RoleAuthor, models.RoleAdmin), controllers.UpdateManuscript)
				manuscripts.PUT("/:id/main-file", middleware.RequireRole(models.RoleAuthor, models.RoleAdmin), controllers.AttachMainFile)
				manuscripts.POST("/:id/charge", middleware.RequireRole(models.RoleAuthor, models.RoleAdmin), controllers.CreateCharge)
				manuscripts.POST("/:id/resubmit", middleware.RequireRole(models.RoleAuthor, models.RoleAdmin), controllers.ResubmitRevisions)

				// Editorial workflow
				manuscripts.POST("/:id/assign-editor", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.AssignEditor)
				manuscripts.POST("/:id/publish", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.PublishManuscript)
				manuscripts.POST("/:id/assignments", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.InviteReviewer)
				manuscripts.GET("/:id/assignments", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.GetManuscriptAssignments)

				// Decisions
				manuscripts.POST("/:id/decision", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.ProcessDecision)
				manuscripts.GET("/:id/decisions", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.GetDecisionHistory)
				manuscripts.GET("/:id/decision-drafts", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.GetDraftDecisions)
			}

			// Editorial queue with urgency flags
			protected.GET("/queue", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.GetEditorQueue)

			// Decision drafts
			protected.POST("/decision-drafts/:id/submit", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.SubmitFinalDecision)

			// Review assignments
			assignments := protected.Group("/assignments")
			{
				assignments.GET("/mine", controllers.GetMyAssignments)
				assignments.POST("/:id/respond", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.RespondToAssignment)
				assignments.POST("/remind", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.RemindAssignments)
				assignments.PUT("/:id/review", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.SaveReviewDraft)
			}

			// Reviews
			reviews := protected.Group("/reviews")
			{
				reviews.POST("/:id/submit", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.SubmitReview)
				reviews.POST("/:id/withdraw", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.WithdrawReview)
				reviews.GET("/:id/quality", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.GetReviewQualityReport)
				reviews.POST("/:id/flags", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.FlagReview)
			}

			// Reviewer workload
			reviewers := protected.Group("/reviewers")
			{
				reviewers.GET("/:id/availability", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.GetReviewerAvailability)
				reviewers.GET("/:id/metrics", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.GetReviewerMetrics)
				reviewers.PUT("/:id/settings", controllers.UpdateReviewerSettings)
			}
		}
	}
}
