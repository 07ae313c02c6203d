package controllers

import (
	"net/http"
	"strconv"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

func reviewerIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reviewer ID"})
		return 0, false
	}
	return id, true
}

// GetReviewerAvailability reports whether a reviewer can take a new
// assignment, with remaining capacity and an estimated next-free date.
func GetReviewerAvailability(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	reviewerID, ok := reviewerIDParam(c)
	if !ok {
		return
	}

	availability, err := services.NewWorkloadService(nil).IsAvailable(reviewerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "availability": availability})
}

// UpdateReviewerSettings persists workload settings for a reviewer.
func UpdateReviewerSettings(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	reviewerID, ok := reviewerIDParam(c)
	if !ok {
		return
	}

	var input services.ReviewerSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	profile, err := services.NewWorkloadService(nil).UpdateSettings(actor, reviewerID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

// GetReviewerMetrics returns turnaround and reliability aggregates over the
// trailing window. Read-only; editors use it when choosing reviewers.
func GetReviewerMetrics(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	reviewerID, ok := reviewerIDParam(c)
	if !ok {
		return
	}

	metrics, err := services.NewWorkloadService(nil).PerformanceMetrics(reviewerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "metrics": metrics})
}
